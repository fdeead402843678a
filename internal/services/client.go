package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibra/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	defaultUserAgent = "vibra-cli"
	headerRequestID  = "X-Request-ID"
)

// Options configures a [Client]. Zero values fall back to defaults.
type Options struct {
	// BaseURL includes the version prefix, e.g. http://localhost:8080/api/v1
	BaseURL    string
	HTTPClient *http.Client
	// Tokens is consulted once per request. A nil source sends every request anonymously.
	Tokens    oauth2.TokenSource
	Logger    *log.Logger
	UserAgent string
}

// Client is the HTTP adapter every resource service goes through.
//
// It owns the base URL and bearer injection; it never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     *log.Logger
	userAgent  string

	auth            *AuthService
	tracks          *TracksService
	artists         *ArtistsService
	albums          *AlbumsService
	playlists       *PlaylistsService
	recommendations *RecommendationsService
	profile         *ProfileService
	search          *SearchService
}

// NewClient creates a new adapter and its resource services.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = shared.DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	c := &Client{
		baseURL:    base,
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
		userAgent:  opts.UserAgent,
	}
	c.auth = &AuthService{c}
	c.tracks = &TracksService{c}
	c.artists = &ArtistsService{c}
	c.albums = &AlbumsService{c}
	c.playlists = &PlaylistsService{c}
	c.recommendations = &RecommendationsService{c}
	c.profile = &ProfileService{c}
	c.search = &SearchService{c}
	return c
}

func (c *Client) Auth() *AuthService                       { return c.auth }
func (c *Client) Tracks() *TracksService                   { return c.tracks }
func (c *Client) Artists() *ArtistsService                 { return c.artists }
func (c *Client) Albums() *AlbumsService                   { return c.albums }
func (c *Client) Playlists() *PlaylistsService             { return c.playlists }
func (c *Client) Recommendations() *RecommendationsService { return c.recommendations }
func (c *Client) Profile() *ProfileService                 { return c.profile }
func (c *Client) Search() *SearchService                   { return c.search }

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Origin returns scheme and host of the base URL, where unversioned endpoints such as /health live.
func (c *Client) Origin() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return c.baseURL
	}
	return u.Scheme + "://" + u.Host
}

// SetTokenSource replaces the token source used for subsequent requests.
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.tokens = ts
}

// Do sends a JSON request to path (relative to the base URL) and decodes a 2xx body into result.
//
// A nil body sends no payload and a nil result discards the response. Non-2xx responses return
// [*RequestError]; transport failures return [*NetworkError].
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	return c.do(ctx, method, c.baseURL+path, query, body, result)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request body: %w", shared.ErrInvalidInput, err)
		}
		payload = data
	}

	resp, data, err := c.send(ctx, method, endpoint, query, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newRequestError(method, endpointPath(endpoint), resp.StatusCode, data)
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
	}
	return nil
}

// send performs one round trip and returns the fully read body.
func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, payload []byte) (*http.Response, []byte, error) {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headerRequestID, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	path := endpointPath(endpoint)
	c.logger.Debug("api request", "method", method, "path", path, "request_id", req.Header.Get(headerRequestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("api response", "method", method, "path", path, "status", resp.StatusCode)
	return resp, data, nil
}

// authorize attaches the persisted bearer token, if any.
//
// Expiry is not checked here. The session clears expired tokens from the store.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}

	tok, err := c.tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return
	}
	tok.SetAuthHeader(req)
}

// endpointPath strips scheme, host and query from an absolute endpoint for logs and errors.
func endpointPath(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Path
}

// Call is [Client.Do] with a typed result.
func Call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*T, error) {
	var out T
	if err := c.Do(ctx, method, path, query, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get issues a GET request. See [Client.Do].
func (c *Client) Get(ctx context.Context, path string, query url.Values, result any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, result)
}

// Post issues a POST request. See [Client.Do].
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, result)
}

// Put issues a PUT request. See [Client.Do].
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, result)
}

// Delete issues a DELETE request. See [Client.Do].
func (c *Client) Delete(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, result)
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Raw sends data as-is to path and returns the response without interpreting the status code.
//
// The bearer token is attached the same way as for typed calls.
func (c *Client) Raw(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	resp, body, err := c.send(ctx, method, c.baseURL+path, nil, data)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}
