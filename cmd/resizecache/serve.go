package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/resizecache"
	"github.com/unkn0wn-root/resizecache/httpapi"
	"github.com/unkn0wn-root/resizecache/internal/config"
	"github.com/unkn0wn-root/resizecache/promhooks"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var (
		hooks   []resizecache.Hooks
		metrics http.Handler
	)
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		hooks = append(hooks, promhooks.New("", reg))
		metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	a, err := build(ctx, cfg, log, hooks...)
	if err != nil {
		return err
	}

	e := httpapi.New(httpapi.Options{Handler: a.resizer, Logger: log, Metrics: metrics})

	log.Info("starting resizecache",
		zap.String("addr", cfg.ListenAddr),
		zap.String("origin", cfg.OriginBucket),
		zap.String("backend", cfg.Backend))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return errors.Join(e.Shutdown(sctx), a.Close(sctx))
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
		return err
	}
	log.Info("server exited")
	return nil
}
