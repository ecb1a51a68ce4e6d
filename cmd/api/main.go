package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillnavigator/roadmap-service/config"
	"github.com/skillnavigator/roadmap-service/internal/bootstrap"
	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/metrics"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("roadmap service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(os.Stdout, cfg.SlogLevel())
	bootstrap.SetGinMode(cfg.App.Environment)

	if cfg.Inference.APIKey == "" {
		slog.Warn("GROQ_API_KEY is not set, generation requests will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer comps.Close()

	m := metrics.Default()
	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config:     cfg,
		Components: comps,
		Workflow:   comps.Workflow(cfg, m),
		Metrics:    m,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening",
			"addr", srv.Addr,
			"env", cfg.App.Environment,
			"ledger", cfg.Ledger.Backend,
			"storage", cfg.Storage.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
