// Package traceapi is the REST client of the TRACE API.
package traceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/trace/core"
)

// ErrTimeout is returned when a call did not complete before its deadline.
var ErrTimeout error = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string { return "request timed out" }
func (timeoutError) Timeout() bool { return true }

// Error is a non-2xx answer of the API. The body is either {"error": "msg"} or
// {"field": "msg", ...}.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d: invalid input", e.Status)
	}
	return fmt.Sprintf("%d: %s", e.Status, http.StatusText(e.Status))
}

// UserMessage is the server's message, verbatim.
func (e *Error) UserMessage() string { return e.Message }

func (e *Error) FieldErrors() map[string]string { return e.Fields }

// TokenFunc returns the bearer token to send, "" for none.
type TokenFunc func() string

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.rest.HTTPClient = hc }
}

// WithTimeout bounds every call. The context given to a call may still shorten it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithToken(fn TokenFunc) Option {
	return func(c *Client) { c.token = fn }
}

func WithLogger(l core.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	rest    *rest.Client
	timeout time.Duration
	token   TokenFunc
	logger  core.Logger
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{}},
		timeout: 15 * time.Second,
		token:   func() string { return "" },
		logger:  core.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method rest.Method, path string, query map[string]string, in, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}
	if tok := c.token(); tok != "" {
		req.Headers["Authorization"] = "Bearer " + tok
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.WithStack(ErrTimeout)
		}
		c.logger.Warn(fmt.Sprintf("%s %s failed", method, path), err)
		return errors.Wrapf(err, "%s %s", method, path)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeError(res)
	}
	if out == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

func decodeError(res *rest.Response) error {
	apiErr := &Error{Status: res.StatusCode}
	var body map[string]interface{}
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		apiErr.Message = strings.TrimSpace(res.Body)
		return apiErr
	}
	for _, key := range []string{"error", "message"} {
		if msg, ok := body[key].(string); ok && msg != "" {
			apiErr.Message = msg
			return apiErr
		}
	}
	for k, v := range body {
		if msg, ok := v.(string); ok {
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string]string, len(body))
			}
			apiErr.Fields[k] = msg
		}
	}
	return apiErr
}

// IsStatus reports whether err is an API answer with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
