package console_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nookcoder/clinic-console/internal/authtest"
	"github.com/nookcoder/clinic-console/internal/console"
	"github.com/nookcoder/clinic-console/internal/httpclient"
	"github.com/nookcoder/clinic-console/internal/logging"
	"github.com/nookcoder/clinic-console/internal/metrics"
	"github.com/nookcoder/clinic-console/internal/router"
	"github.com/nookcoder/clinic-console/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	api    *authtest.Server
	store  *session.Store
	engine *gin.Engine
}

func newHarness(t *testing.T, opts ...authtest.Option) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := authtest.NewServer(t, opts...)
	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	client := httpclient.New(httpclient.Options{BaseURL: api.URL, Logger: logger})
	store := session.New(session.Options{API: session.NewHTTPAuthAPI(client), Header: client, Metrics: m, Logger: logger})
	session.InstallUnauthorizedInterceptor(client, func() session.Clearer { return store }, m, logger)

	table := router.ClinicTable()
	guard := router.NewGuard(router.GuardOptions{Table: table, Session: store, Metrics: m, Logger: logger})

	engine := console.NewRouter(console.Deps{
		Store:    store,
		Client:   client,
		Guard:    guard,
		Table:    table,
		Gatherer: reg,
		Logger:   logger,
	})
	return &harness{api: api, store: store, engine: engine}
}

func (h *harness) do(method, target string, body string, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) login(t *testing.T, username, password, redirect string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	if redirect != "" {
		form.Set("redirect", redirect)
	}
	return h.do(http.MethodPost, "/login", form.Encode(), "application/x-www-form-urlencoded")
}

func TestConsole_ProtectedPageRedirectsToLogin(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	w := h.do(http.MethodGet, "/dashboard/patients?x=1", "", "")

	// Assert
	assert.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/dashboard/patients?x=1", loc.Query().Get("redirect"))
}

func TestConsole_LoginReturnsToRequestedPage(t *testing.T) {
	h := newHarness(t)

	w := h.login(t, "admin", "admin123", "/dashboard/patients?x=1")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard/patients?x=1", w.Header().Get("Location"))

	page := h.do(http.MethodGet, "/dashboard/patients?x=1", "", "")
	assert.Equal(t, http.StatusOK, page.Code)

	var view struct {
		Route   string `json:"route"`
		Session struct {
			IsAuthenticated bool `json:"isAuthenticated"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(page.Body.Bytes(), &view))
	assert.Equal(t, "patients", view.Route)
	assert.True(t, view.Session.IsAuthenticated)
}

func TestConsole_LoginRejectsForeignRedirect(t *testing.T) {
	h := newHarness(t)

	w := h.login(t, "admin", "admin123", "//evil.example/steal")

	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestConsole_FailedLoginShowsError(t *testing.T) {
	h := newHarness(t)

	w := h.login(t, "admin", "wrong", "/dashboard/visits")
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, _ := url.Parse(w.Header().Get("Location"))
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/dashboard/visits", loc.Query().Get("redirect"))

	page := h.do(http.MethodGet, w.Header().Get("Location"), "", "")
	require.Equal(t, http.StatusOK, page.Code)
	var view struct {
		Login struct {
			LastError string `json:"lastError"`
			Loading   bool   `json:"loading"`
			Redirect  string `json:"redirect"`
		} `json:"login"`
	}
	require.NoError(t, json.Unmarshal(page.Body.Bytes(), &view))
	assert.Equal(t, "Bad credentials", view.Login.LastError)
	assert.False(t, view.Login.Loading)
	assert.Equal(t, "/dashboard/visits", view.Login.Redirect)
}

func TestConsole_LoginJSONBody(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/login", `{"username":"admin","password":"admin123"}`, "application/json")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, h.store.IsAuthenticated())
}

func TestConsole_LoginPageWhileAuthenticated(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123", "")

	w := h.do(http.MethodGet, "/login", "", "")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestConsole_RoleMismatchIsNotFound(t *testing.T) {
	h := newHarness(t, authtest.WithAccount("dr.lan", "secret", "DOCTOR"))
	h.login(t, "dr.lan", "secret", "")

	denied := h.do(http.MethodGet, "/dashboard/doctors", "", "")
	allowed := h.do(http.MethodGet, "/dashboard/visits", "", "")

	assert.Equal(t, http.StatusNotFound, denied.Code)
	assert.Equal(t, http.StatusOK, allowed.Code)
}

func TestConsole_UnknownPageIsNotFound(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/no/such/page", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"route":"not-found"`)
}

func TestConsole_ProxyRequiresSession(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/patients", "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, h.api.LoginCalls())
}

func TestConsole_ProxyForwardsWithBearer(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123", "")

	w := h.do(http.MethodGet, "/api/patients?page=0", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Items []struct {
			Code string `json:"code"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	require.Len(t, data.Items, 1)
	assert.Equal(t, "BN0001", data.Items[0].Code)
}

func TestConsole_RevokedTokenClearsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123", "")
	h.api.Revoke(h.store.Token())

	w := h.do(http.MethodGet, "/api/patients", "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, h.store.IsAuthenticated())

	next := h.do(http.MethodGet, "/dashboard", "", "")
	assert.Equal(t, http.StatusFound, next.Code)
	assert.True(t, strings.HasPrefix(next.Header().Get("Location"), "/login?"))
}

func TestConsole_LogoutClearsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123", "")

	w := h.do(http.MethodPost, "/logout", "", "")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, 1, h.api.LogoutCalls())
	assert.False(t, h.store.IsAuthenticated())
}

func TestConsole_SessionNeverEchoesToken(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123", "")

	w := h.do(http.MethodGet, "/session", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), h.store.Token())
	assert.Contains(t, w.Body.String(), `"isAuthenticated":true`)
	assert.Contains(t, w.Body.String(), `"subject":"admin"`)
}

func TestConsole_HealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/dashboard", "", "")

	health := h.do(http.MethodGet, "/health", "", "")
	m := h.do(http.MethodGet, "/metrics", "", "")

	assert.JSONEq(t, `{"status":"ok"}`, health.Body.String())
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `clinic_console_navigation_total{outcome="login"} 1`)
}

func TestConsole_NonGetPageIsNotFound(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodDelete, "/dashboard", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
