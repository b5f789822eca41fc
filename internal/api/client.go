// Package api implements the authenticated HTTP dispatch layer shared by
// all domain services: it attaches the bearer token at dispatch time,
// normalizes error responses into tagged errors, and funnels 401 responses
// into a single unauthorized hook.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"floo/internal/log"
)

// Doer dispatches a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the bearer token attached to outgoing requests.
// It is read once per request, at dispatch time.
type TokenSource interface {
	Token() string
}

// Client is the shared resource client. All authenticated calls go through
// Do; the configured unauthorized hook fires on every 401 response.
type Client struct {
	http           Doer
	base           *url.URL
	tokens         TokenSource
	onUnauthorized func(context.Context)
	logger         *log.Logger
}

// NewClient creates a resource client for the given API origin.
// onUnauthorized may be nil; when set it is invoked exactly once for each
// call that receives a 401, before the call's error is returned.
func NewClient(httpClient Doer, base *url.URL, tokens TokenSource, onUnauthorized func(context.Context), logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentAPI)
	}
	return &Client{
		http:           httpClient,
		base:           base,
		tokens:         tokens,
		onUnauthorized: onUnauthorized,
		logger:         logger,
	}
}

// Do dispatches one API call. body (when non-nil) is marshaled as JSON;
// out (when non-nil) receives the decoded 2xx response body. The returned
// error is always a *Error for non-2xx outcomes.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	op := method + " /" + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindOperation, Op: op, Err: fmt.Errorf("encode request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &Error{Kind: KindOperation, Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldError, err.Error())
		return &Error{Kind: KindOperation, Op: op, Detail: "server unreachable", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindOperation, Status: resp.StatusCode, Op: op, Err: fmt.Errorf("read response body: %w", err)}
	}

	c.logger.DebugContext(ctx, "API request completed",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds(),
		log.FieldSuccess, resp.StatusCode < 400)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return &Error{Kind: KindOperation, Status: resp.StatusCode, Op: op, Err: fmt.Errorf("decode response body: %w", err)}
			}
		}
		return nil
	}

	detail := decodeDetail(data, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return &Error{Kind: KindAuthentication, Status: resp.StatusCode, Detail: detail, Op: op}
	}

	return &Error{Kind: classify(resp.StatusCode), Status: resp.StatusCode, Detail: detail, Op: op}
}

func classify(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindOperation
	}
}

// decodeDetail extracts the server's {"detail": ...} message. The detail is
// usually a string, but validation responses may carry structured data.
func decodeDetail(data []byte, status int) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		return string(body.Detail)
	}
	return http.StatusText(status)
}
