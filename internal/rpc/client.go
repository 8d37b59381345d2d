package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/auth"
)

const (
	// DefaultMethodPrefix mirrors the backend's dotted-method mount point.
	DefaultMethodPrefix = "/api/method/elearning.elearning.doctype."
	absoluteMethodRoot  = "/api/method/"
	defaultTimeout      = 60 * time.Second
)

// Request describes one dotted-method call. Method is a path suffix such
// as "test_attempt.test_attempt.save_attempt_progress" unless it already
// starts with /api/method/. Params become the query string; Body is JSON.
type Request struct {
	Method string
	Verb   string
	Params map[string]string
	Body   interface{}
}

// Response is the decoded Frappe envelope.
type Response struct {
	Message      json.RawMessage `json:"message"`
	ErrorMessage string          `json:"_error_message"`
	Exception    string          `json:"exception"`
}

// Decode unmarshals the message payload into out. An envelope whose
// message is absent but carries an error field decodes into an *Error.
func (r *Response) Decode(method string, out interface{}) error {
	if len(r.Message) == 0 || string(r.Message) == "null" {
		if r.ErrorMessage != "" {
			return &Error{Method: method, Message: r.ErrorMessage}
		}
		return &DataIntegrityError{Method: method, Missing: "message"}
	}
	if err := json.Unmarshal(r.Message, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

// Client is the single authenticated HTTP helper all backend traffic goes
// through. It resolves dotted method suffixes against the configured base
// URL, attaches the bearer credential from the session provider, and
// translates failures into *Error values with human-readable messages.
type Client struct {
	http     *resty.Client
	prefix   string
	provider auth.SessionProvider
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

func WithMethodPrefix(prefix string) Option {
	return func(c *Client) { c.prefix = prefix }
}

func NewClient(baseURL string, provider auth.SessionProvider, opts ...Option) *Client {
	c := &Client{
		http:     resty.New().SetBaseURL(baseURL).SetTimeout(defaultTimeout),
		prefix:   DefaultMethodPrefix,
		provider: provider,
	}
	c.http.SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) resolve(method string) string {
	if strings.HasPrefix(method, absoluteMethodRoot) {
		return method
	}
	return c.prefix + method
}

// Call issues one backend request. Context cancellation is returned as-is
// (context.Canceled / DeadlineExceeded), never wrapped into an *Error, so
// callers can tell an aborted call from a failed one.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	path := c.resolve(req.Method)
	verb := req.Verb
	if verb == "" {
		verb = "GET"
	}

	r := c.http.R().SetContext(ctx)
	if len(req.Params) > 0 {
		r.SetQueryParams(req.Params)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	if c.provider != nil {
		token, err := c.provider.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving session token: %w", err)
		}
		if token == "" {
			log.Warn().Str("method", req.Method).Msg("rpc: no bearer token available in session")
		} else {
			r.SetHeader("Authorization", "Bearer "+token)
		}
	}

	resp, err := r.Execute(verb, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("calling %s: %w", req.Method, err)
	}

	var envelope Response
	if len(resp.Body()) > 0 {
		// A non-JSON error page still yields a usable *Error below.
		if err := json.Unmarshal(resp.Body(), &envelope); err != nil && !resp.IsError() {
			return nil, fmt.Errorf("decoding %s envelope: %w", req.Method, err)
		}
	}

	if resp.IsError() {
		msg := envelope.ErrorMessage
		if msg == "" {
			msg = firstExceptionLine(envelope.Exception)
		}
		log.Error().Str("method", req.Method).Int("status", resp.StatusCode()).Str("message", msg).
			Msg("rpc: backend call failed")
		return nil, &Error{Status: resp.StatusCode(), Method: req.Method, Message: msg}
	}

	return &envelope, nil
}

func firstExceptionLine(exc string) string {
	if exc == "" {
		return ""
	}
	if i := strings.IndexByte(exc, '\n'); i > 0 {
		return exc[:i]
	}
	return exc
}
