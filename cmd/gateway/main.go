// Package main is the entry point for the content-source gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zacxyonly/manga-api-parsers/internal/config"
	"github.com/zacxyonly/manga-api-parsers/internal/gateway"
	"github.com/zacxyonly/manga-api-parsers/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logLevel := flag.String("log-level", "", "Log level (overrides GATEWAY_LOG_LEVEL)")
	logFormat := flag.String("log-format", "", "Log format: json or console (overrides GATEWAY_LOG_FORMAT)")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("manga-api-parsers gateway\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n",
			version, buildTime, gitCommit)
		return
	}

	cfg := config.FromEnv()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}

	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("gateway exited with error", observability.Error(err))
	}
}

func run(cfg *config.Config, logger observability.Logger) error {
	registry, err := builtinSources(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build source registry: %w", err)
	}

	gw, err := gateway.New(cfg, registry, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Warn("gateway shutdown cleanup failed", observability.Error(err))
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gw.Engine(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening",
			observability.String("addr", server.Addr),
			observability.String("cache_backend", cfg.CacheBackend),
			observability.Int("sources", registry.Count()),
			observability.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		logger.Info("shutdown signal received", observability.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}
