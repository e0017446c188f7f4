// Package console is the local console host: it evaluates the route guard
// before every page navigation, runs the login flow against the session
// store and proxies view resource fetches to the clinic API.
package console

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/nookcoder/clinic-console/internal/health"
	"github.com/nookcoder/clinic-console/internal/httpclient"
	"github.com/nookcoder/clinic-console/internal/logging"
	"github.com/nookcoder/clinic-console/internal/router"
	"github.com/nookcoder/clinic-console/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Store  *session.Store
	Client *httpclient.Client
	Guard  *router.Guard
	Table  *router.Table
	Routes RouteNames
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter builds the console host. Pages are served by the catch-all
// handler so the route table, not gin, decides what exists.
func NewRouter(d Deps) *gin.Engine {
	logger := logging.OrDefault(d.Logger)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	pages := NewPageHandler(d.Store, d.Table, d.Routes, logger)
	proxy := NewProxyHandler(d.Client, logger)
	healthHandler := health.NewHealthHandler()

	// Public
	r.GET("/health", healthHandler.Check)
	r.GET("/session", pages.Session)
	r.POST("/login", pages.Login)
	r.POST("/logout", pages.Logout)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Protected API
	api := r.Group("/api")
	api.Use(RequireSession(d.Store))
	{
		api.Any("/*path", proxy.Forward)
	}

	r.NoRoute(NavigationGuard(d.Guard), pages.Show)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("console request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
