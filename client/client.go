// Package client talks to the Masomo REST backend.
// Every endpoint answers with the same JSON envelope: {success, data?, message?, user?}.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultTimeout  = 10 * time.Second
	maxResponseSize = 10 * 1024 * 1024
	userAgent       = "masomo-portal/1.0"
)

var ErrMalformed = errors.New("malformed response envelope")

// Envelope is the response shape shared by every backend endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	User    *EnvelopeUser   `json:"user,omitempty"`
}

type EnvelopeUser struct {
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ResponseError is returned for non-2xx responses. Message is the body's "message", if any.
type ResponseError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return e.Path + ": " + e.Message
	}
	return e.Path + ": " + http.StatusText(e.StatusCode)
}

// MessageOf returns the backend-provided message carried by err, or "".
func MessageOf(err error) string {
	if rErr, ok := errors.Cause(err).(*ResponseError); ok {
		return rErr.Message
	}
	return ""
}

type (
	// Getter is what the pollers need.
	Getter interface {
		Get(ctx context.Context, path string) (Envelope, error)
	}

	// Poster is what the login and settings flows need.
	Poster interface {
		Post(ctx context.Context, path string, body interface{}) (Envelope, error)
	}

	Client struct {
		baseURL string
		http    *http.Client
	}

	Option func(*Client)
)

var (
	_ Getter = (*Client)(nil)
	_ Poster = (*Client)(nil)
)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a Client for baseURL. Cookies set by the backend are kept for later requests.
func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil) // never fails without options
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout, Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string) (Envelope, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) (Envelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, errors.Wrap(err, "encoding request body")
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data))
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Envelope{}, errors.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "reading %s response", path)
	}

	var env Envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rErr := &ResponseError{StatusCode: resp.StatusCode, Path: path}
		if decodeErr == nil {
			rErr.Message = env.Message
		}
		return Envelope{}, rErr
	}
	if decodeErr != nil {
		return Envelope{}, errors.Wrap(ErrMalformed, decodeErr.Error())
	}
	return env, nil
}
