package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibra/internal/server"
	"github.com/urfave/cli/v3"
)

// DevServe runs the seeded in-memory API until the context is cancelled.
func (r *Runner) DevServe(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	api, err := server.New(server.Options{
		Secret:   []byte(r.config.Server.Secret),
		TokenTTL: cmd.Duration("token-ttl"),
		Logger:   r.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create dev API: %w", err)
	}

	ready := make(chan string, 1)
	go func() {
		if bound, ok := <-ready; ok {
			r.writePlain("Serving the Vibra API at http://%s%s\n", bound, server.APIPrefix)
			r.writePlain("Point the CLI at it with --api-url http://%s%s\n", bound, server.APIPrefix)
		}
	}()
	defer close(ready)

	return server.Serve(ctx, addr, api, r.logger, ready)
}
