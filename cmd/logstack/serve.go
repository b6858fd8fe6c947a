package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rpattn/logstack/internal/analytics"
	"github.com/rpattn/logstack/internal/api"
	"github.com/rpattn/logstack/internal/config"
	"github.com/rpattn/logstack/internal/ingestion"
	"github.com/rpattn/logstack/internal/metrics"
	"github.com/rpattn/logstack/internal/middleware"
)

type serveOptions struct {
	addr      string
	memory    bool
	noMigrate bool
}

func (a *app) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.memory, "memory", false, "Keep records in memory instead of PostgreSQL")
	cmd.Flags().BoolVar(&opts.noMigrate, "no-migrate", false, "Skip applying migrations on startup")

	return cmd
}

// newRouter assembles the HTTP surface over st.
func newRouter(cfg config.Config, st stores, registry *prometheus.Registry) (http.Handler, error) {
	m := metrics.New(registry)

	policy, err := analytics.ParseDegeneratePolicy(cfg.Analytics.DegenerateTrend)
	if err != nil {
		return nil, err
	}
	analyticsService := analytics.NewService(st.records, analytics.Options{
		AutocompleteLimit: cfg.Analytics.AutocompleteLimit,
		DegeneratePolicy:  policy,
		Observer:          m,
	})
	ingestionService := ingestion.NewService(st.records, st.logs, m)

	mux := http.NewServeMux()
	api.NewHTTPHandler(analyticsService, api.Limits{
		MaxPageSize:        cfg.Analytics.MaxPageSize,
		CompareMaxPageSize: cfg.Analytics.CompareMaxPageSize,
	}, st.health).Register(mux)
	ingestion.NewHTTPHandler(ingestionService, cfg.Server.MaxUploadBytes).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler(registry))

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(log.Logger, m)(handler)
	return corsHandler.Handler(handler), nil
}

func (a *app) serve(ctx context.Context, opts *serveOptions) error {
	cfg := a.cfg
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	st := memoryStores()
	if !opts.memory {
		var err error
		st, err = postgresStores(ctx, cfg.Database, !opts.noMigrate)
		if err != nil {
			return err
		}
	}
	defer st.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := newRouter(cfg, st, registry)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Bool("memory", opts.memory).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited")
	return nil
}
