package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/the-llm/backend/internal/api"
	"github.com/the-llm/backend/internal/auth"
	"github.com/the-llm/backend/internal/config"
	"github.com/the-llm/backend/internal/core"
	"github.com/the-llm/backend/internal/ratelimit"
	"github.com/the-llm/backend/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database",
			zap.Error(err),
			zap.String("databaseUrl", cfg.DatabaseURL))
	}
	defer dbStore.Close()

	chatService := core.NewChatService(dbStore)
	completionService := core.NewCompletionService(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.Pretext)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	limiter := ratelimit.New(ratelimit.NewMemoryStore(ratelimit.DefaultWindow), ratelimit.DefaultLimit)

	apiHandler := api.NewAPIHandler(chatService, completionService, verifier, logger)
	router := api.NewRouter(apiHandler, limiter, cfg.FrontendOrigin)

	serverAddr := net.JoinHostPort(cfg.BindAddr, cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
