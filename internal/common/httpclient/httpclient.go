// Package httpclient provides the configured HTTP client used for every call to
// the backend. Before each request it reads the current session token and, when
// one is present, attaches it as a bearer credential. Failures come back as
// either a *TransportError (no response) or an *HTTPError (non-2xx response).
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// TokenSource supplies the server location and the current bearer token.
// Token is consulted immediately before every request; an empty token means
// the request is sent without an Authorization header.
type TokenSource interface {
	ServerURL() string
	Token() string
}

// HTTPError represents a non-2xx response from the server.
type HTTPError struct {
	StatusCode int    // HTTP status code of the response
	Message    string // server-provided message, or the response body
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

// TransportError is returned when no response was received at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status code carried by err, or 0 when err is
// not an *HTTPError.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// HTTPClient makes requests against a single server on behalf of a session.
type HTTPClient struct {
	src        TokenSource
	httpClient *http.Client
	headers    map[string]string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *HTTPClient) {
		c.headers[key] = value
	}
}

// NewClient creates a client bound to src.
func NewClient(src TokenSource, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		src:        src,
		httpClient: &http.Client{},
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestOptions describes a single request.
type RequestOptions struct {
	Method      string            // HTTP method (GET, POST, PUT, DELETE)
	Path        string            // path relative to the server URL
	QueryParams map[string]string // optional query parameters
	Body        []byte            // optional request body
	Headers     map[string]string // per-request headers, override the defaults
}

// Response is a successful (2xx) response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type of the response without parameters.
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// DoRequest makes an HTTP request with the given options.
func (c *HTTPClient) DoRequest(ctx context.Context, opts RequestOptions) (*Response, error) {
	u, err := url.Parse(c.src.ServerURL())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", c.src.ServerURL())
	}
	u.Path = path.Join("/", u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), bytes.NewReader(opts.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if len(opts.Body) == 0 {
		req.Header.Del("Content-Type")
	}
	if token := c.src.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logger := log.Ctx(ctx)
	logger.Debug().Str("method", opts.Method).Str("url", u.String()).
		Bool("authenticated", req.Header.Get("Authorization") != "").Msg("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: opts.Method, URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: opts.Method, URL: u.String(), Err: fmt.Errorf("reading response body: %w", err)}
	}

	logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("received response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    ServerMessage(body),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// ServerMessage extracts a human-readable message from an error body. It
// understands {"detail": "..."}, {"detail": [{"msg": "..."}]}, {"message": "..."},
// {"error": {"message": "..."}} and {"error": "..."}. Anything else is returned
// as trimmed text.
func ServerMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, p := range []string{"detail.0.msg", "detail", "message", "error.message", "error"} {
			r := gjson.GetBytes(body, p)
			if r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	}
	return strings.TrimSpace(string(body))
}

// CreateResource posts data to resourcePath.
func (c *HTTPClient) CreateResource(ctx context.Context, resourcePath string, data []byte) ([]byte, error) {
	rsp, err := c.DoRequest(ctx, RequestOptions{
		Method: http.MethodPost,
		Path:   resourcePath,
		Body:   data,
	})
	if err != nil {
		return nil, err
	}
	return rsp.Body, nil
}

// ListResources gets the collection at resourcePath.
func (c *HTTPClient) ListResources(ctx context.Context, resourcePath string, queryParams map[string]string) ([]byte, error) {
	rsp, err := c.DoRequest(ctx, RequestOptions{
		Method:      http.MethodGet,
		Path:        resourcePath,
		QueryParams: queryParams,
	})
	if err != nil {
		return nil, err
	}
	return rsp.Body, nil
}

// UpdateResource puts data to resourcePath/resourceName.
func (c *HTTPClient) UpdateResource(ctx context.Context, resourcePath, resourceName string, data []byte) ([]byte, error) {
	p, err := resourceURLPath(resourcePath, resourceName)
	if err != nil {
		return nil, err
	}
	rsp, err := c.DoRequest(ctx, RequestOptions{
		Method: http.MethodPut,
		Path:   p,
		Body:   data,
	})
	if err != nil {
		return nil, err
	}
	return rsp.Body, nil
}

// DeleteResource deletes resourcePath/resourceName.
func (c *HTTPClient) DeleteResource(ctx context.Context, resourcePath, resourceName string) error {
	p, err := resourceURLPath(resourcePath, resourceName)
	if err != nil {
		return err
	}
	_, err = c.DoRequest(ctx, RequestOptions{
		Method: http.MethodDelete,
		Path:   p,
	})
	return err
}

// Upload posts a multipart form built from fields and file to resourcePath.
func (c *HTTPClient) Upload(ctx context.Context, resourcePath string, fields []FormField, file MultipartFile) (*Response, error) {
	body, contentType, err := EncodeMultipart(fields, file)
	if err != nil {
		return nil, err
	}
	return c.DoRequest(ctx, RequestOptions{
		Method:  http.MethodPost,
		Path:    resourcePath,
		Body:    body,
		Headers: map[string]string{"Content-Type": contentType},
	})
}

func resourceURLPath(resourcePath, resourceName string) (string, error) {
	resourceName = strings.TrimSpace(resourceName)
	if resourceName == "" {
		return "", fmt.Errorf("resource name is required")
	}
	if strings.Contains(resourceName, "/") {
		return "", fmt.Errorf("invalid resource name %q", resourceName)
	}
	return strings.TrimSuffix(resourcePath, "/") + "/" + resourceName, nil
}
