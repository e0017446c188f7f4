package httpclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/nookcoder/clinic-console/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

func newEchoServer(t *testing.T, status int, reply string) (*httptest.Server, chan seenRequest) {
	t.Helper()
	seen := make(chan seenRequest, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen <- seenRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone(), body: body}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestClient_AuthHeaderLifecycle(t *testing.T) {
	srv, seen := newEchoServer(t, http.StatusOK, `{}`)
	client := httpclient.New(httpclient.Options{BaseURL: srv.URL, Timeout: time.Second})
	client.SetHeader("X-Clinic", "main")

	// Act 1: token set
	client.SetAuthHeader("abc.def.ghi")
	_, err := client.Get(context.Background(), "/patients", nil)
	require.NoError(t, err)
	first := <-seen

	// Act 2: token removed
	client.SetAuthHeader("")
	_, err = client.Get(context.Background(), "/patients", nil)
	require.NoError(t, err)
	second := <-seen

	// Assert
	assert.Equal(t, "Bearer abc.def.ghi", first.header.Get("Authorization"))
	assert.Equal(t, "main", first.header.Get("X-Clinic"))
	_, present := second.header["Authorization"]
	assert.False(t, present, "Authorization header must be absent, not empty")
	assert.Equal(t, "main", second.header.Get("X-Clinic"))
	assert.False(t, client.HasHeader("Authorization"))
}

func TestClient_VerbsAndBody(t *testing.T) {
	srv, seen := newEchoServer(t, http.StatusOK, `{"statusCode":200,"data":{"id":7}}`)
	client := httpclient.New(httpclient.Options{BaseURL: srv.URL + "/"})
	ctx := context.Background()

	resp, err := client.Post(ctx, "visits", map[string]string{"note": "fever"})
	require.NoError(t, err)
	req := <-seen
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/visits", req.path)
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))
	assert.JSONEq(t, `{"note":"fever"}`, string(req.body))
	assert.NotEmpty(t, req.header.Get(httpclient.HeaderRequestID))

	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, 7, out.ID)

	for _, call := range []struct {
		method string
		do     func() (*httpclient.Response, error)
	}{
		{http.MethodPut, func() (*httpclient.Response, error) { return client.Put(ctx, "/visits/7", map[string]int{"a": 1}) }},
		{http.MethodPatch, func() (*httpclient.Response, error) { return client.Patch(ctx, "/visits/7", map[string]int{"a": 1}) }},
		{http.MethodDelete, func() (*httpclient.Response, error) { return client.Delete(ctx, "/visits/7") }},
	} {
		_, err := call.do()
		require.NoError(t, err)
		assert.Equal(t, call.method, (<-seen).method)
	}

	_, err = client.Get(ctx, "/patients", url.Values{"keyword": {"an"}, "page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, "keyword=an&page=2", (<-seen).query)
}

func TestClient_ResponseError(t *testing.T) {
	srv, _ := newEchoServer(t, http.StatusBadRequest, `{"statusCode":400,"message":"Sai mật khẩu"}`)
	client := httpclient.New(httpclient.Options{BaseURL: srv.URL})

	_, err := client.Post(context.Background(), "/login", map[string]string{})

	var re *httpclient.ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	assert.Equal(t, "Sai mật khẩu", re.Message)
	assert.Equal(t, "Sai mật khẩu", httpclient.Message(err))
	assert.False(t, httpclient.IsUnauthorized(err))
}

func TestClient_ErrorFieldFallback(t *testing.T) {
	srv, _ := newEchoServer(t, http.StatusUnauthorized, `{"error":"Invalid or expired token"}`)
	client := httpclient.New(httpclient.Options{BaseURL: srv.URL})

	_, err := client.Get(context.Background(), "/me", nil)

	assert.True(t, httpclient.IsUnauthorized(err))
	assert.Equal(t, "Invalid or expired token", httpclient.Message(err))
}

func TestClient_InterceptorInstalledOnce(t *testing.T) {
	srv, _ := newEchoServer(t, http.StatusUnauthorized, `{}`)
	client := httpclient.New(httpclient.Options{BaseURL: srv.URL})
	calls := 0
	hook := httpclient.Interceptor{OnError: func(err error) error {
		calls++
		return err
	}}

	first := client.AttachInterceptor(hook)
	second := client.AttachInterceptor(hook)
	_, err := client.Get(context.Background(), "/patients", nil)

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, 1, calls)
	assert.True(t, httpclient.IsUnauthorized(err))
}

func TestClient_InterceptorPassesSuccessThrough(t *testing.T) {
	srv, _ := newEchoServer(t, http.StatusOK, `{"ok":true}`)
	client := httpclient.New(httpclient.Options{BaseURL: srv.URL})
	client.AttachInterceptor(httpclient.Interceptor{OnError: func(err error) error {
		t.Fatal("OnError must not run for 2xx")
		return err
	}})

	resp, err := client.Get(context.Background(), "/", nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestClient_TransportErrorReachesInterceptor(t *testing.T) {
	client := httpclient.New(httpclient.Options{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	var seen error
	client.AttachInterceptor(httpclient.Interceptor{OnError: func(err error) error {
		seen = err
		return err
	}})

	_, err := client.Get(context.Background(), "/", nil)

	require.Error(t, err)
	assert.Same(t, err, seen)
	assert.Equal(t, 0, httpclient.StatusCode(err))
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"envelope", `{"statusCode":200,"message":null,"data":{"accessToken":"t"}}`, `{"accessToken":"t"}`},
		{"bare object", `{"accessToken":"t"}`, `{"accessToken":"t"}`},
		{"array", `[1,2]`, `[1,2]`},
		{"envelope with null data", `{"statusCode":204,"data":null}`, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := httpclient.Unwrap([]byte(tt.in))
			assert.True(t, json.Valid(got))
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
