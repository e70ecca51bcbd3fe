package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// apiPrefix is appended to the configured origin.
const apiPrefix = "/api"

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 1 << 20

// Client is the hackathon platform API client. It is the single chokepoint for
// outbound REST calls and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics registers request counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = newMetrics(reg) }
}

// WithToken seeds the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a new API client for the given origin, e.g. "https://hackforge.dev".
func New(origin string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(origin, "/") + apiPrefix,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the origin plus the API prefix.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token used by subsequent requests.
// An empty token disables the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the bearer token that the next request will carry.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope is the uniform response shape of every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Request issues a JSON request against path (relative to the API prefix) and
// decodes the envelope's data field into out. out may be nil.
// Every failure is returned as a *Error.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return unexpected(fmt.Errorf("marshal body: %w", err))
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, reqBody, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return unexpected(fmt.Errorf("create request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	// Read at call time so a token change applies to the very next request.
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, 0, time.Since(start))
		c.logger.Debug("request failed",
			zap.String("method", method), zap.String("path", path),
			zap.String("request_id", requestID), zap.Error(err))
		return transport(err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.metrics.observe(method, resp.StatusCode, time.Since(start))
	c.logger.Debug("request",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if err == io.EOF && out == nil {
			return nil
		}
		return unexpected(fmt.Errorf("decode response: %w", err))
	}
	if !env.Success {
		return &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: firstNonEmpty(env.Message, env.Error, "request was not successful")}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return unexpected(fmt.Errorf("decode data: %w", err))
		}
	}
	return nil
}

func serverError(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		return &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Err: readErr}
	}
	var env envelope
	if json.Unmarshal(respBody, &env) == nil {
		if msg := firstNonEmpty(env.Message, env.Error); msg != "" {
			return &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: msg}
		}
	}
	return &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: firstNonEmpty(http.StatusText(resp.StatusCode), fmt.Sprintf("HTTP %d", resp.StatusCode))}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.Request(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.Request(ctx, http.MethodPost, path, body, out)
}
