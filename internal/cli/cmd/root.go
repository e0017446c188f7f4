package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nookcoder/clinic-console/config"
	"github.com/nookcoder/clinic-console/internal/app"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	env       string
	configDir string
	baseURL   string

	app *app.App
}

// NewRootCmd builds the clinic CLI. Every subcommand shares one session
// through the configured persistence driver.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "clinic",
		Short:         "CLI client for the clinic console",
		Long:          "Sign in to the clinic API and call it from the terminal with a persisted session.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Hi! I'm the clinic console CLI. Try 'clinic help'")
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.env, "env", os.Getenv("APP_ENV"), "configuration environment (config/envs/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", "config", "directory holding envs/<env>.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "api", "", "clinic API base URL (overrides config)")

	rootCmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newRequestCmd(opts),
		newNavCmd(opts),
	)
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the shared app for a subcommand.
func (o *rootOptions) bootstrap(ctx context.Context) (*app.App, error) {
	if o.app != nil {
		return o.app, nil
	}

	cfg, err := config.LoadFrom(o.configDir, o.env)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.baseURL != "" {
		cfg.API.BaseURL = o.baseURL
	}

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return nil, err
	}
	o.app = a
	return a, nil
}

func (o *rootOptions) close() {
	if o.app == nil {
		return
	}
	if err := o.app.Close(); err != nil {
		o.app.Logger.Warn("failed to close session store", "error", err)
	}
	o.app = nil
}

// run wraps a subcommand body with bootstrap and cleanup.
func (o *rootOptions) run(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := o.bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer o.close()
		return fn(cmd, args, a)
	}
}
