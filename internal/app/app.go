// Package app wires the console's components in dependency order. The
// console host and the CLI both start from here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nookcoder/clinic-console/config"
	"github.com/nookcoder/clinic-console/internal/httpclient"
	"github.com/nookcoder/clinic-console/internal/infrastructure/database"
	"github.com/nookcoder/clinic-console/internal/logging"
	"github.com/nookcoder/clinic-console/internal/metrics"
	"github.com/nookcoder/clinic-console/internal/router"
	"github.com/nookcoder/clinic-console/internal/session"
	"github.com/nookcoder/clinic-console/internal/tokenstore"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Client   *httpclient.Client
	Store    *session.Store
	Table    *router.Table
	Guard    *router.Guard
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	persist tokenstore.Store
	db      *gorm.DB
}

type Options struct {
	// Logger overrides the logger built from cfg.Log.
	Logger *slog.Logger
	// Persist overrides the store built from cfg.Session.
	Persist tokenstore.Store
}

// New builds the client, persistence and session store, rehydrates the
// session and installs the 401 interceptor before anything can issue an
// authenticated request.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	client := httpclient.New(httpclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Metrics:  m,
		Registry: reg,
		persist:  opts.Persist,
	}

	if a.persist == nil {
		db, err := database.NewSessionDB(*cfg)
		if err != nil {
			return nil, fmt.Errorf("open session database: %w", err)
		}
		a.db = db

		persist, err := tokenstore.New(storeConfig(cfg), tokenstore.Dependencies{DB: db})
		if err != nil {
			a.closeDB()
			return nil, fmt.Errorf("open session store: %w", err)
		}
		a.persist = persist
	}

	a.Store = session.New(session.Options{
		API:     session.NewHTTPAuthAPI(client),
		Header:  client,
		Persist: a.persist,
		Metrics: m,
		Logger:  logger,
	})
	session.InstallUnauthorizedInterceptor(client, func() session.Clearer { return a.Store }, m, logger)

	if err := a.Store.Restore(ctx); err != nil {
		logger.Warn("failed to restore session, starting signed out", "error", err)
	}

	a.Table = router.ClinicTable()
	a.Guard = router.NewGuard(router.GuardOptions{
		Table:    a.Table,
		Session:  a.Store,
		Login:    cfg.Routes.Login,
		Home:     cfg.Routes.Home,
		NotFound: cfg.Routes.NotFound,
		Metrics:  m,
		Logger:   logger,
	})

	if err := a.Store.Subscribe(func(s session.Snapshot) {
		if s.Loading {
			return
		}
		logger.Debug("session changed", "authenticated", s.IsAuthenticated, "subject", subjectOf(s))
	}); err != nil {
		logger.Warn("failed to subscribe to session changes", "error", err)
	}

	return a, nil
}

// Close releases persistence resources.
func (a *App) Close() error {
	var err error
	if a.persist != nil {
		err = a.persist.Close()
	}
	if dbErr := a.closeDB(); err == nil {
		err = dbErr
	}
	return err
}

func (a *App) closeDB() error {
	if a.db == nil {
		return nil
	}
	err := database.Close(a.db)
	a.db = nil
	return err
}

func storeConfig(cfg *config.Config) tokenstore.Config {
	s := cfg.Session
	return tokenstore.Config{
		Driver: s.Driver,
		Key:    s.Key,
		Path:   s.Path,
		Redis: &tokenstore.RedisConfig{
			Addr:     s.Redis.Addr,
			Username: s.Redis.Username,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
			Prefix:   s.Redis.Prefix,
		},
	}
}

func subjectOf(s session.Snapshot) string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Subject
}
