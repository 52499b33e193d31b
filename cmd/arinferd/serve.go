package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"arinfer/internal/config"
	"arinfer/internal/httpapi"
	"arinfer/internal/nodes"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	addr        string
	corsOrigins string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if opts.addr != "" {
				cfg.Addr = opts.addr
			}
			if origins := splitCSV(opts.corsOrigins); len(origins) > 0 {
				cfg.CORS.Enabled = true
				cfg.CORS.Origins = origins
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, root.logger(cfg))
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", os.Getenv("ARINFER_ADDR"), "HTTP listen address, e.g. :8080 (overrides config)")
	cmd.Flags().StringVar(&opts.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins; enables CORS")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	sel, part, err := buildTopology(cfg)
	if err != nil {
		return err
	}
	coord := newCoordinator(cfg, sel, part, log)

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(coord),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Int("nodes", sel.Len()).Strs("models", part.Models()).Msg("arinferd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		pruneLoop(gctx, sel, time.Duration(cfg.NodeStaleAfterS)*time.Second, log)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown")
		}
		return nil
	})
	err = g.Wait()
	log.Info().Msg("arinferd stopped")
	return err
}

// pruneLoop marks remote nodes offline once they miss heartbeats for maxAge.
func pruneLoop(ctx context.Context, sel *nodes.Selector, maxAge time.Duration, log zerolog.Logger) {
	if maxAge <= 0 {
		return
	}
	t := time.NewTicker(maxAge / 3)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sel.PruneStale(maxAge); n > 0 {
				log.Warn().Int("nodes", n).Dur("stale_after", maxAge).Msg("marked stale nodes offline")
			}
		}
	}
}
