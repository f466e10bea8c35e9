package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/pagebridge/internal/config"
	"github.com/vango-dev/pagebridge/pkg/host"
	"github.com/vango-dev/pagebridge/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var (
		addr       string
		logLevel   string
		precaching bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the page WebSocket endpoint",
		Long: `Start the host that pages connect to over WebSocket.

Every event a page sends is logged. The host also serves app-worker.js,
/healthz and, when host.metrics is set, Prometheus metrics on /metrics.

Examples:
  pagebridge serve
  pagebridge serve --addr :9000 --precache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Host.Addr = addr
			}
			hc, err := cfg.HostConfig()
			if err != nil {
				return err
			}

			w, err := storageWorker(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := []host.Option{
				host.WithConfig(hc),
				host.WithLogger(logger),
				host.WithWorker(w),
			}
			if cfg.Host.Metrics {
				registry := prometheus.NewRegistry()
				m := middleware.NewMetrics(middleware.WithRegistry(registry))
				w.Observer = m
				opts = append(opts, host.WithMetrics(m, registry))
			}

			if precaching {
				if err := precache(ctx, w); err != nil {
					return err
				}
				info("precached %s", w.CacheName())
			}

			h := host.New(host.LogHandler{Logger: logger}, opts...)
			success("Listening on %s", cfg.Host.Addr)
			return h.ListenAndServe(ctx, cfg.Host.Addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from pagebridge.json)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&precaching, "precache", false, "Install the cache generation before serving")
	return cmd
}
