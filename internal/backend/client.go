package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; a session talks to a handful of board servers
const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// RequestIDHeader carries the per-request correlation id sent to board servers.
const RequestIDHeader = "X-Request-ID"

// Response holds the result of an HTTP request made by [Client].
//
// Response captures the body (limited to 1MB), status code, latency and any
// transport error. RequestID is the correlation id sent with the request.
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// RequestID is the value of the X-Request-ID header sent with the request.
	RequestID string

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// Client is an HTTP client wrapper for talking to board servers.
//
// Client has no global timeout. The original board UI never timed out a
// request, so the default timeout is zero (none); a positive timeout is
// applied per request via the context.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a new [Client] with the given per-request timeout.
// A timeout of zero disables it.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		timeout: timeout,
	}
}

// Fetch performs an HTTP request and returns a structured [Response].
//
// If form is non-nil it is sent as an application/x-www-form-urlencoded
// body; POST requests with a nil form send an empty form body.
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately. Cancellation of ctx surfaces as an error
// wrapping [context.Canceled].
func (c *Client) Fetch(ctx context.Context, method, rawURL string, form url.Values) Response {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	requestID := uuid.NewString()

	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if form != nil || method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return Response{
			Latency:   time.Since(start),
			RequestID: requestID,
			Error:     fmt.Errorf("failed to create request: %w", err),
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency:   time.Since(start),
			RequestID: requestID,
			Error:     fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			RequestID:  requestID,
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       data,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
		RequestID:  requestID,
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil receiver. The client remains
// usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
