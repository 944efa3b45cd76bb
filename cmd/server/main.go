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

	"github.com/agenthands/recordlink/internal/config"
	"github.com/agenthands/recordlink/internal/core"
	"github.com/agenthands/recordlink/internal/core/dedupe"
	"github.com/agenthands/recordlink/internal/llm"
	"github.com/agenthands/recordlink/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Warn("using built-in configuration", "path", cfgPath, "error", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.Log)
	defer closeLog()
	if envErr != nil {
		logger.Info("no .env file found, using environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reviewer *dedupe.Reviewer
	if cfg.Match.MaxQueries > 0 {
		client, err := llm.NewClient(ctx, cfg.LLM, logger)
		if err != nil {
			logger.Error("failed to initialize LLM client", "error", err)
			os.Exit(1)
		}
		reviewer, err = dedupe.NewReviewer(client, cfg.Review, logger)
		if err != nil {
			logger.Error("failed to initialize reviewer", "error", err)
			os.Exit(1)
		}
	}

	srv := server.NewServer(core.NewService(cfg, reviewer, logger), logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", "port", port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
