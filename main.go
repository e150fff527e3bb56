package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/db"
	"github.com/danielhkuo/live-poll/middleware"
	"github.com/danielhkuo/live-poll/realtime"
	"github.com/danielhkuo/live-poll/router"
)

func main() {
	var err error

	// A missing .env is fine; real environment variables still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the store and create the schema / indexes
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := db.Open(connectCtx, cfg.DatabaseType, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("database setup failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Database ready", "type", cfg.DatabaseType)

	hub := realtime.NewHub()

	// Optional multi-instance fan-out
	if cfg.RedisURL != "" {
		relay, err := realtime.NewRelay(ctx, cfg.RedisURL, realtime.DefaultRelayChannel)
		if err != nil {
			slog.Error("relay connection failed", "error", err)
			os.Exit(1)
		}
		defer relay.Close()

		if err := relay.Start(ctx, hub); err != nil {
			slog.Error("relay subscribe failed", "error", err)
			os.Exit(1)
		}
	}

	// Create router
	mux := router.NewRouter(store, hub, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(cfg.FrontendURL)(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "frontend", cfg.FrontendURL)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	// Websocket connections are hijacked, so Shutdown does not wait for them.
	// Their roster cleanup must finish before the store closes.
	hub.Close()
	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hub.Wait(waitCtx); err != nil {
		slog.Warn("sessions still open at exit", "error", err)
	}
}
