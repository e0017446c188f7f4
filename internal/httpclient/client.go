// Package httpclient is the single pre-configured sender used for every call to the
// clinic API. It owns the mutable default header set (including the bearer
// Authorization header) and a one-shot response interceptor slot.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nookcoder/clinic-console/internal/logging"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client sends requests relative to a base URL with a shared default header set.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu      sync.RWMutex
	headers http.Header

	attachMu    sync.Mutex
	attached    bool
	interceptor atomic.Pointer[Interceptor]
}

func New(opts Options) *Client {
	headers := make(http.Header)
	headers.Set("Accept", "application/json")

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		logger:  logging.OrDefault(opts.Logger),
		headers: headers,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a default header sent with every subsequent request.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(key, value)
}

// DeleteHeader removes a default header entirely.
func (c *Client) DeleteHeader(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Del(key)
}

// Header returns the current default value for key, or "" when absent.
func (c *Client) Header(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(key)
}

// HasHeader reports whether key is present in the default header set.
func (c *Client) HasHeader(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.headers[http.CanonicalHeaderKey(key)]
	return ok
}

// SetAuthHeader installs "Bearer <token>" as the default Authorization header,
// or removes the header when token is empty.
func (c *Client) SetAuthHeader(token string) {
	if token == "" {
		c.DeleteHeader(HeaderAuthorization)
		return
	}
	c.SetHeader(HeaderAuthorization, "Bearer "+token)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, nil, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do issues a request. Default headers are captured when the request is built, so
// a header change made while the request is in flight does not affect it.
// Non-2xx responses are returned as *ResponseError. Every outcome passes through
// the attached interceptor, if any.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, c.reject(err)
	}
	return c.fulfil(resp)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.resolve(path)
	if len(query) > 0 {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse url %q: %w", target, err)
		}
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	req.Header = c.headers.Clone()
	c.mu.RUnlock()

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	return req, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) send(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newResponseError(req, out)
	}
	return out, nil
}

func (c *Client) fulfil(resp *Response) (*Response, error) {
	i := c.interceptor.Load()
	if i == nil || i.OnResponse == nil {
		return resp, nil
	}
	return i.OnResponse(resp)
}

func (c *Client) reject(err error) error {
	i := c.interceptor.Load()
	if i == nil || i.OnError == nil {
		return err
	}
	return i.OnError(err)
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "application/json", nil
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	case io.Reader:
		return b, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
