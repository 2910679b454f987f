// Package apiclient is the HTTP transport for the Holy Grail REST backend.
//
// Every call runs through an ordered chain of request interceptors before it
// is sent and through response interceptors once an answer (or a transport
// failure) is known. Interceptors never retry and never swallow errors.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/holygrail/holygrail-web/internal/errors"
	"github.com/holygrail/holygrail-web/internal/observability/statsd"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 1 << 20
)

// RequestInterceptor mutates an outgoing request. kind describes the payload
// the request was built from.
type RequestInterceptor func(ctx context.Context, req *http.Request, kind PayloadKind) error

// ResponseInterceptor observes the outcome of a call. resp is nil when the
// transport failed. It returns the error to hand to the caller; interceptors
// in this package always return callErr unchanged.
type ResponseInterceptor func(ctx context.Context, resp *http.Response, callErr error) error

// Request describes one API call. Body may be nil, a *Form, a Binary, or any
// JSON-marshalable value.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. "https://api.holygrail.example/v1".
	BaseURL string
	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger

	// Metrics receives an "api.call" timing per call. Nil disables it.
	Metrics statsd.Sink

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
}

// Client sends requests to the backend through the interceptor chains.
type Client struct {
	base       *url.URL
	http       *http.Client
	logger     *slog.Logger
	metrics    statsd.Sink
	onRequest  []RequestInterceptor
	onResponse []ResponseInterceptor
}

// New creates a Client. The base URL must be absolute.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("api base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base URL: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("api base URL %q must be absolute", raw)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       base,
		http:       hc,
		logger:     logger,
		metrics:    opts.Metrics,
		onRequest:  append([]RequestInterceptor(nil), opts.RequestInterceptors...),
		onResponse: append([]ResponseInterceptor(nil), opts.ResponseInterceptors...),
	}, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// Use appends request interceptors. Call during setup only.
func (c *Client) Use(interceptors ...RequestInterceptor) {
	c.onRequest = append(c.onRequest, interceptors...)
}

// OnResponse appends response interceptors. Call during setup only.
func (c *Client) OnResponse(interceptors ...ResponseInterceptor) {
	c.onResponse = append(c.onResponse, interceptors...)
}

// Get issues a GET and decodes the JSON answer into out (when non-nil).
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Do runs the full call: encode, request interceptors, send, response
// interceptors, decode. Non-2xx answers are returned as *Error.
func (c *Client) Do(ctx context.Context, in Request, out any) error {
	req, kind, err := c.newRequest(ctx, in)
	if err != nil {
		return err
	}

	for _, intercept := range c.onRequest {
		if err := intercept(ctx, req, kind); err != nil {
			return fmt.Errorf("request interceptor: %w", err)
		}
	}

	start := time.Now()
	resp, callErr := c.http.Do(req)
	elapsed := time.Since(start)
	if callErr != nil {
		callErr = transportError(ctx, req, callErr)
		c.observe(in.Path, req.Method, "error", elapsed)
		c.logger.DebugContext(ctx, "api call failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Duration("duration", elapsed),
			slog.Any("error", callErr))
		return c.afterResponse(ctx, nil, callErr)
	}
	defer resp.Body.Close()

	c.observe(in.Path, req.Method, strconv.Itoa(resp.StatusCode), elapsed)
	c.logger.DebugContext(ctx, "api call",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", elapsed))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.afterResponse(ctx, resp, newError(req, resp))
	}
	if err := c.afterResponse(ctx, resp, nil); err != nil {
		return err
	}
	return decodeBody(resp, out)
}

func (c *Client) observe(path, method, status string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Timing("api.call", elapsed, map[string]string{
		"endpoint": endpointTag(path),
		"method":   method,
		"status":   status,
	})
}

// endpointTag keeps at most two path segments and masks numeric ones.
func endpointTag(path string) string {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return "root"
	}
	if len(segments) > 2 {
		segments = segments[:2]
	}
	for i, s := range segments {
		if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			segments[i] = "id"
		}
	}
	return strings.Join(segments, "/")
}

func (c *Client) afterResponse(ctx context.Context, resp *http.Response, callErr error) error {
	err := callErr
	for _, intercept := range c.onResponse {
		err = intercept(ctx, resp, err)
	}
	return err
}

func (c *Client) newRequest(ctx context.Context, in Request) (*http.Request, PayloadKind, error) {
	method := in.Method
	if method == "" {
		method = http.MethodGet
	}

	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(in.Path, "/")
	if len(in.Query) > 0 {
		u.RawQuery = in.Query.Encode()
	}

	payload, err := encodePayload(in.Body)
	if err != nil {
		return nil, PayloadNone, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload.body)
	if err != nil {
		return nil, PayloadNone, fmt.Errorf("build request: %w", err)
	}
	for k, vals := range in.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if payload.contentType != "" {
		req.Header.Set("Content-Type", payload.contentType)
	}
	return req, payload.kind, nil
}

func decodeBody(resp *http.Response, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode api response")
	}
	return nil
}

func transportError(ctx context.Context, req *http.Request, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.Wrapf(err, apperrors.ErrCodeCanceled, "%s %s canceled", req.Method, req.URL.Path)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), isTimeout(err):
		return apperrors.Wrapf(err, apperrors.ErrCodeTimeout, "%s %s timed out", req.Method, req.URL.Path)
	default:
		return apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "%s %s", req.Method, req.URL.Path)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
