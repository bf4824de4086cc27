// package api implements the HTTP transport for the MREE backend.
//
// A [Client] owns the resolved base address, attaches the stored bearer
// credential to every request, and classifies failures into network errors
// (no response obtained) and backend errors (non-2xx with an optional
// detail message). A 401 from any endpoint eagerly clears the credential.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/mree-music/mree/internal/shared"
)

// defaultTimeout bounds connection establishment and response-header wait.
// Deliberately not an overall request timeout: stream bodies are long-lived.
const defaultTimeout = 10 * time.Second

// TokenStore holds the single bearer credential slot.
//
// Token returns nil without error when no credential is held.
type TokenStore interface {
	Token() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
	Clear() error
}

// Client issues authenticated requests against the backend.
type Client struct {
	resolver   *Resolver
	tokens     TokenStore
	httpClient *http.Client
	logger     *log.Logger
}

// NewHTTPClient builds an http.Client with connect and response-header
// timeouts but no overall deadline, so stream bodies can outlive it.
// Non-positive timeouts fall back to the default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConnsPerHost:   2,
		},
	}
}

// NewClient creates a Client. A nil httpClient gets transport-level
// timeouts suitable for both JSON calls and streaming.
func NewClient(resolver *Resolver, tokens TokenStore, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(defaultTimeout)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Client{
		resolver:   resolver,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Response represents a completed backend call.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do performs a JSON request against an /api route and decodes the response
// into result when result is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) (*Response, error) {
	resp, err := c.do(ctx, method, "/api"+path, body)
	if err != nil {
		return nil, err
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}

// do executes one request with bearer attachment and error classification.
func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	base, err := c.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", shared.ErrNetwork, err)
	}

	if err := c.checkStatus(resp.StatusCode, data); err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// authorize attaches the bearer credential when one is held. Requests go out
// unauthenticated otherwise; the backend decides what that means.
func (c *Client) authorize(req *http.Request) error {
	if c.tokens == nil {
		return nil
	}

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if token != nil && token.AccessToken != "" {
		token.SetAuthHeader(req)
	}
	return nil
}

// checkStatus maps a non-2xx status to an [*Error]. A 401 clears the stored
// credential before the error propagates; the invalidation is global, not
// per-call.
func (c *Client) checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	if status == http.StatusUnauthorized && c.tokens != nil {
		if err := c.tokens.Clear(); err != nil {
			c.logger.Error("failed to clear credential after 401", "err", err)
		} else {
			c.logger.Debug("credential cleared after 401")
		}
	}

	return newError(status, body)
}
