package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	v1 "github.com/jczaplew/gl-js-offline/internal/infrastructure/http/v1"
	"github.com/jczaplew/gl-js-offline/internal/infrastructure/http/v1/handler"
	"github.com/jczaplew/gl-js-offline/internal/repository/store"
	"github.com/jczaplew/gl-js-offline/internal/usecase"
	"github.com/jczaplew/gl-js-offline/pkg/config"
	"github.com/jczaplew/gl-js-offline/pkg/http_server"
	"github.com/jczaplew/gl-js-offline/pkg/logger"
	"github.com/jczaplew/gl-js-offline/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)

	l.Info("app config", "cfg", cfg)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	// The keyed store is opened once here and injected into everything that
	// needs it.
	tileStore, err := store.NewFromConfig(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize store", "driver", cfg.Store.Driver, "error", err)
	}
	defer tileStore.Close()

	fetcher := usecase.NewHTTPFetcher(cfg.Downloader, l)
	packUseCase := usecase.NewPackUseCase(tileStore, fetcher, l)

	validate := validator.New()
	h := handler.NewHandler(validate, packUseCase, l)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	httpServer := http_server.NewServer(cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down http server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	}

	l.Info("application shutdown completed")
}
