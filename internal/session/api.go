package session

import (
	"context"
	"encoding/json"

	"github.com/nookcoder/clinic-console/internal/httpclient"
)

const (
	loginPath  = "/login"
	logoutPath = "/logout"
)

// HTTPAuthAPI talks to the clinic API's /login and /logout endpoints.
type HTTPAuthAPI struct {
	client *httpclient.Client
}

func NewHTTPAuthAPI(client *httpclient.Client) *HTTPAuthAPI {
	return &HTTPAuthAPI{client: client}
}

func (a *HTTPAuthAPI) Login(ctx context.Context, creds Credentials) (string, error) {
	resp, err := a.client.Post(ctx, loginPath, creds)
	if err != nil {
		return "", err
	}
	return extractAccessToken(resp.Body), nil
}

func (a *HTTPAuthAPI) Logout(ctx context.Context) error {
	_, err := a.client.Post(ctx, logoutPath, nil)
	return err
}

// extractAccessToken accepts the token at the top level or inside a "data"
// envelope and returns "" when neither carries one. Each level is read on its
// own, so sibling fields of any type do not get in the way.
func extractAccessToken(body []byte) string {
	top := jsonObject(body)
	if token := stringField(top, "accessToken"); token != "" {
		return token
	}
	if data, ok := top["data"]; ok {
		return stringField(jsonObject(data), "accessToken")
	}
	return ""
}

func jsonObject(raw []byte) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func stringField(obj map[string]json.RawMessage, name string) string {
	raw, ok := obj[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
