package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/hlane/httpqueue/config"
	"github.com/hlane/httpqueue/internal/infrastructure/postgres"
	ctxlog "github.com/hlane/httpqueue/internal/log"
	"github.com/hlane/httpqueue/internal/metrics"
	"github.com/hlane/httpqueue/internal/monitor"
	"github.com/hlane/httpqueue/internal/rategate"
	"github.com/hlane/httpqueue/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	jobStore := postgres.NewJobStore(pool)
	sink := metrics.NewPromSink()
	gate := rategate.New(cfg.RateLimitPerHost)
	httpClient := worker.NewHTTPClient()

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		w := worker.New(jobStore, gate, httpClient, sink, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Start(ctx)
		}()
	}

	mon := monitor.New(jobStore, sink, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		mon.Start(ctx)
	}()

	logger.Info("worker started", "worker_count", cfg.WorkerCount)

	<-ctx.Done()
	logger.Info("shutting down...")
	wg.Wait()
	logger.Info("worker shut down")
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
