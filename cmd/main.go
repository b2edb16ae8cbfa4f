/*
Package main is the entry point for the chat relay.

It loads configuration, initializes the global logger, starts the hub loop around the presence
engine, serves HTTP and WebSocket traffic and shuts everything down on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"chatrelay/internal/app/presence"
	"chatrelay/internal/app/relay"
	"chatrelay/internal/configs"
	"chatrelay/internal/handler"
	"chatrelay/internal/pkg/limiter"
	"chatrelay/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Float64("ws_rate", cfg.WSRate).
		Int("ws_burst", cfg.WSBurst).
		Float64("api_rate", cfg.APIRate).
		Int("api_burst", cfg.APIBurst).
		Float64("event_rate", cfg.EventRate).
		Int("event_burst", cfg.EventBurst).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := relay.NewHub(presence.NewEngine())
	go hub.Run()

	upgradeLimiter := limiter.NewIPRateLimiter(rate.Limit(cfg.WSRate), cfg.WSBurst)
	apiLimiter := limiter.NewIPRateLimiter(rate.Limit(cfg.APIRate), cfg.APIBurst)

	router := handler.Router(&handler.AppDeps{
		Hub:            hub,
		Config:         cfg,
		UpgradeLimiter: upgradeLimiter,
		APILimiter:     apiLimiter,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat relay listening on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked WebSocket connections outlive server.Shutdown; stopping the hub closes them.
	hub.Shutdown()
	upgradeLimiter.Close()
	apiLimiter.Close()

	logx.Info("Server gracefully stopped.")
}
