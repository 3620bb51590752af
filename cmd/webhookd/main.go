package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/auth"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/config"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/dispatch"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/eventlog"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/ratelimit"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/reply"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/server"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/storage"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/storage/sqlite"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/telemetry"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/webhook"
)

const serviceName = "zalo-webhook-gateway"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer(serviceName, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var images storage.ImageMessageStore
	if cfg.Storage.Type == "sqlite" {
		store, err := sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			log.Fatalf("Failed to open image event store: %v", err)
		}
		defer store.Close()
		images = store
		logger.Info("image event persistence enabled", slog.String("path", cfg.Storage.SQLite.Path))
	}

	sender := reply.NewLogSender(logger)
	dispatcher := dispatch.New(
		dispatch.NewMessageHandler(sender, logger),
		dispatch.NewUserActionHandler(sender, logger),
		images,
		logger,
	)

	limiter := ratelimit.New(cfg.RateLimit.MaxEventsPerMinute, ratelimit.DefaultWindow)
	verifier := auth.NewVerifier(cfg.Zalo.SecretKey, cfg.Zalo.RequireSignature, logger)
	events := eventlog.New(eventlog.DefaultCapacity)

	gateway := webhook.NewGateway(limiter, verifier, events, dispatcher, logger)
	handlers := webhook.NewHandlers(gateway, events, cfg.Zalo.VerifyToken, logger)

	srv := server.New(cfg.Server.Port, logger)
	handlers.Mount(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
