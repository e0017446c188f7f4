package console

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nookcoder/clinic-console/internal/router"
	"github.com/nookcoder/clinic-console/internal/session"
)

// RouteNames names the routes the login flow redirects between.
type RouteNames struct {
	Login    string
	Home     string
	NotFound string
}

func (n RouteNames) withDefaults() RouteNames {
	if n.Login == "" {
		n.Login = "login"
	}
	if n.Home == "" {
		n.Home = "dashboard"
	}
	if n.NotFound == "" {
		n.NotFound = "not-found"
	}
	return n
}

type PageHandler struct {
	store  *session.Store
	table  *router.Table
	names  RouteNames
	logger *slog.Logger
}

func NewPageHandler(store *session.Store, table *router.Table, names RouteNames, logger *slog.Logger) *PageHandler {
	return &PageHandler{store: store, table: table, names: names.withDefaults(), logger: logger}
}

type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Redirect string `form:"redirect" json:"redirect"`
}

// Show renders the view state of a page the guard let through.
func (h *PageHandler) Show(c *gin.Context) {
	target := c.MustGet(ctxTarget).(router.Target)
	snap := h.store.Snapshot()

	view := gin.H{
		"route":   target.Name,
		"path":    target.Path,
		"params":  target.Params,
		"query":   target.Query,
		"session": snap,
	}
	if target.Name == h.names.Login {
		view["login"] = gin.H{
			"loading":   snap.Loading,
			"lastError": snap.LastError,
			"redirect":  target.Query.Get(router.RedirectParam),
		}
	}

	status := http.StatusOK
	if target.Name == h.names.NotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, view)
}

// Login signs in and sends the browser to the requested local path, or
// back to the login page when sign-in fails.
func (h *PageHandler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"statusCode": 400, "error": err.Error()})
		return
	}
	redirect := form.Redirect
	if redirect == "" {
		redirect = c.Query(router.RedirectParam)
	}

	err := h.store.SignIn(c.Request.Context(), session.Credentials{Username: form.Username, Password: form.Password})
	if err != nil {
		h.logger.Info("console sign-in rejected", "username", form.Username)
		loc := router.Location{Path: h.pathFor(h.names.Login, "/login")}
		if redirect != "" {
			loc.Query = map[string][]string{router.RedirectParam: {redirect}}
		}
		c.Redirect(http.StatusSeeOther, loc.String())
		return
	}

	c.Redirect(http.StatusSeeOther, h.landing(redirect))
}

func (h *PageHandler) Logout(c *gin.Context) {
	h.store.SignOut(c.Request.Context())
	c.Redirect(http.StatusSeeOther, h.pathFor(h.names.Login, "/login"))
}

// Session returns the snapshot; the token itself is never echoed.
func (h *PageHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// landing accepts only local absolute paths as redirect targets.
func (h *PageHandler) landing(redirect string) string {
	if isLocalPath(redirect) {
		return redirect
	}
	return h.pathFor(h.names.Home, "/dashboard")
}

func (h *PageHandler) pathFor(name, fallback string) string {
	if h.table == nil {
		return fallback
	}
	p, err := h.table.PathFor(name)
	if err != nil {
		return fallback
	}
	return p
}

func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}
	return !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
