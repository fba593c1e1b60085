package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultCallTimeout bounds every network call the SDK makes.
const DefaultCallTimeout = 45 * time.Second

// TokenSource supplies bearer tokens for API calls. Refresh is invoked at
// most once per logical call, when the server answers 401.
type TokenSource interface {
	// Token returns the current bearer token.
	Token(ctx context.Context) (string, error)

	// Refresh obtains a fresh token after the current one was rejected.
	Refresh(ctx context.Context) (string, error)
}

// APIClient is the transport under the SDK: bearer auth, per-call timeouts,
// the single 401-refresh-replay rule, and status-code mapping into the
// package's error taxonomy.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
	logger     *slog.Logger
}

// NewAPIClient creates a client for the given base URL. Pass 0 for timeout to
// use DefaultCallTimeout.
func NewAPIClient(baseURL string, tokens TokenSource, timeout time.Duration, logger *slog.Logger) *APIClient {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for APIClient")
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "api_client")),
	}
}

// PostJSON sends a JSON body to path and decodes the JSON response into out.
func (c *APIClient) PostJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %v", ErrClient, err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+path, "application/json", payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}
	return nil
}

// PutBytes sends raw bytes to an absolute URL. Used for the signed-upload PUT,
// whose URL comes from the handshake rather than the client's base URL.
func (c *APIClient) PutBytes(ctx context.Context, url, contentType string, data []byte) error {
	resp, err := c.do(ctx, http.MethodPut, url, contentType, data)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// do performs one logical call: attach the bearer token, send, and on a 401
// refresh the token exactly once and replay the identical request. A second
// 401 is terminal. Non-2xx responses are mapped into the error taxonomy.
func (c *APIClient) do(ctx context.Context, method, url, contentType string, body []byte) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get token: %v", ErrClient, err)
	}

	resp, err := c.send(ctx, method, url, contentType, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()

		c.logger.Debug("401 received, refreshing token once", slog.String("url", url))
		token, err = c.tokens.Refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: token refresh failed: %v", ErrUnauthorized, err)
		}

		resp, err = c.send(ctx, method, url, contentType, body, token)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			defer func() { _ = resp.Body.Close() }()
			return nil, c.errorFromResponse(resp)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		return nil, c.errorFromResponse(resp)
	}

	return resp, nil
}

// send issues a single HTTP request carrying the given token.
func (c *APIClient) send(
	ctx context.Context,
	method, url, contentType string,
	body []byte,
	token string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", ErrClient, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return resp, nil
}

// errorFromResponse maps a non-2xx response into the error taxonomy, keeping
// the server's human-readable message when it sent one.
func (c *APIClient) errorFromResponse(resp *http.Response) error {
	var message string
	var body struct {
		Error string `json:"error"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(data, &body) == nil {
			message = body.Error
		}
	}

	kind := ErrUpstream
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusBadRequest,
		http.StatusForbidden,
		http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType:
		kind = ErrClient
	}

	return &APIError{kind: kind, StatusCode: resp.StatusCode, Message: message}
}
