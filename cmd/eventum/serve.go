package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/eventum-app/eventum/internal/config"
	"github.com/eventum-app/eventum/internal/devserver"
	"github.com/eventum-app/eventum/internal/errors"
	"github.com/eventum-app/eventum/pkg/realtime"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		port int
		host string
		db   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local backend",
		Long: `Start a local backend serving the eventum API, the chat service
and the push endpoint, backed by a bbolt file.

An empty store is filled with demo data unless dev.seed is false.

Examples:
  eventum serve
  eventum serve --port=8080
  EVENTUM_DEV_DB=/tmp/demo.db eventum serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if db != "" {
				cfg.Dev.DB = db
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, g, cfg, cmd)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&db, "db", "", "Store file (default from config)")

	return cmd
}

func runServe(ctx context.Context, g *globals, cfg *config.Config, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	logger := g.logger(cfg, cmd.ErrOrStderr())

	path := cfg.Dev.DB
	if !filepath.IsAbs(path) && cfg.Dir() != "" {
		path = filepath.Join(cfg.Dir(), path)
	}
	store, err := devserver.Open(path)
	if err != nil {
		return errors.New("E203").
			WithDetail("Could not open " + path).
			WithSuggestion("Check that no other eventum serve is using the file").
			Wrap(err)
	}
	defer store.Close()

	if cfg.Dev.Seed {
		if err := devserver.Seed(store, time.Now()); err != nil {
			return errors.New("E203").WithDetail("Seeding failed").Wrap(err)
		}
	}

	opts := []devserver.Option{devserver.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		opts = append(opts, devserver.WithRegistry(reg))
	}
	srv := devserver.New(store, opts...)

	success(out, "Serving on %s", cfg.DevURL())
	info(out, "API:  %s%s", cfg.DevURL(), devserver.APIPrefix)
	info(out, "Push: ws://%s%s", cfg.DevAddress(), realtime.ConnectPath)
	if cfg.Dev.Seed {
		info(out, "Demo login: %s / %s", devserver.DemoEmail, devserver.DemoPassword)
	}

	if err := srv.ListenAndServe(ctx, cfg.DevAddress()); err != nil {
		return errors.New("E202").WithDetail("Listening on " + cfg.DevAddress()).Wrap(err)
	}
	info(out, "Shut down")
	return nil
}
