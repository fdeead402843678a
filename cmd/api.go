package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request relative to the base URL
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.client.Raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeRaw(resp, !cmd.Bool("compact"))
}

// APIPost makes a direct POST request with a JSON body
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}
	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.client.Raw(ctx, http.MethodPost, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeRaw(resp, true)
}

// APIHealth reports the API's status and the state of its databases.
func (r *Runner) APIHealth(ctx context.Context, cmd *cli.Command) error {
	health, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return r.emit(cmd, health, func() {
		mark := func(ok bool) string {
			if ok {
				return "✓"
			}
			return "✗"
		}
		r.writePlain("Origin: %s\n", r.client.Origin())
		r.writePlain("Status: %s\n", health.Status)
		r.writePlain("  %s mysql\n  %s mongodb\n  %s neo4j\n", mark(health.MySQL), mark(health.MongoDB), mark(health.Neo4j))
	})
}

func apiPath(cmd *cli.Command) (string, error) {
	path, err := stringArg(cmd, "path")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// writeRaw prints the response body, failing on non-2xx statuses after printing it.
func (r *Runner) writeRaw(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		if err := r.writeJSON(resp.JSONData, pretty); err != nil {
			return err
		}
	} else {
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return nil
}
