package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nookcoder/clinic-console/config"
	"github.com/nookcoder/clinic-console/internal/app"
	"github.com/nookcoder/clinic-console/internal/console"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv("APP_ENV")); err != nil {
		log.Fatalf("Console failed: %v", err)
	}
	log.Println("Console stopped")
}

// run owns every resource it opens, so they are released before main exits.
func run(ctx context.Context, env string) error {
	// 0. Load Config
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 1. Setup
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Session, client & guard
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return fmt.Errorf("start console: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn("failed to close session store", "error", err)
		}
	}()

	// 3. Console host
	r := console.NewRouter(console.Deps{
		Store:    a.Store,
		Client:   a.Client,
		Guard:    a.Guard,
		Table:    a.Table,
		Routes:   console.RouteNames{Login: cfg.Routes.Login, Home: cfg.Routes.Home, NotFound: cfg.Routes.NotFound},
		Gatherer: a.Registry,
		Logger:   a.Logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Run
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("starting clinic console", "addr", srv.Addr, "env", env, "api", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
