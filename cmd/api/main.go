package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberworks/echofall/internal/config"
	"github.com/emberworks/echofall/internal/content"
	"github.com/emberworks/echofall/internal/engine"
	"github.com/emberworks/echofall/internal/handlers"
	"github.com/emberworks/echofall/internal/logger"
	"github.com/emberworks/echofall/internal/middleware"
	"github.com/emberworks/echofall/internal/services"
	"github.com/emberworks/echofall/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Echofall API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"narrator_provider", cfg.NarratorProvider)

	var narrator services.NarrativeService
	switch cfg.NarratorProvider {
	case "anthropic":
		narrator = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
		log.Info("Using Anthropic narrator", "model", cfg.ModelName)
	case "mock":
		narrator = services.NewMockNarrative()
		log.Info("Using mock narrator")
	default:
		log.Error("Invalid narrator provider specified", "provider", cfg.NarratorProvider, "supported", []string{"anthropic", "mock"})
		os.Exit(1)
	}

	store := storage.NewRedisStore(cfg.RedisURL, cfg.SessionTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	eng := engine.New(store, narrator, content.NewRegistry(), log, engine.Options{
		NarrativeTimeout: cfg.NarrativeTimeout,
	})

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, narrator, log)
	mux.Handle("/health", healthHandler)

	sessionsHandler := handlers.NewSessionsHandler(eng, log)
	mux.Handle("/v1/sessions", sessionsHandler)
	mux.Handle("/v1/sessions/", sessionsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
