package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hlane/httpqueue/config"
	"github.com/hlane/httpqueue/internal/admission"
	"github.com/hlane/httpqueue/internal/health"
	"github.com/hlane/httpqueue/internal/infrastructure/postgres"
	ctxlog "github.com/hlane/httpqueue/internal/log"
	httptransport "github.com/hlane/httpqueue/internal/transport/http"
	"github.com/hlane/httpqueue/internal/transport/http/handler"
	"github.com/hlane/httpqueue/internal/transport/http/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	jobStore := postgres.NewJobStore(pool)
	admissionSvc := admission.New(jobStore)
	jobHandler := handler.NewJobHandler(admissionSvc, jobStore, logger)

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewHTTPMetrics(registry)
	checker := health.NewChecker(pool, logger, registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(jobHandler, checker, httpMetrics, metricsHandler),
	}

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
