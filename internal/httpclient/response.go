package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v after stripping a
// {statusCode, message, data} envelope when one is present.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(Unwrap(r.Body), v)
}

// Data returns the unwrapped body.
func (r *Response) Data() json.RawMessage {
	return Unwrap(r.Body)
}

// Unwrap normalizes the API's two response shapes: a JSON object carrying a
// "data" member yields that member, anything else is returned as-is.
func Unwrap(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return json.RawMessage(raw)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return json.RawMessage(raw)
	}
	if data, ok := obj["data"]; ok {
		return data
	}
	return json.RawMessage(raw)
}

// ResponseError is returned for every non-2xx response.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

func newResponseError(req *http.Request, resp *Response) *ResponseError {
	return &ResponseError{
		Method:     req.Method,
		URL:        req.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Message:    serverMessage(resp.Body),
		Body:       resp.Body,
	}
}

// serverMessage pulls a human-readable message from an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message *string `json:"message"`
		Error   *string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != nil && *payload.Message != "" {
		return *payload.Message
	}
	if payload.Error != nil {
		return *payload.Error
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// response error.
func StatusCode(err error) int {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// Message returns the server-supplied message carried by err, if any.
func Message(err error) string {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}
