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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/atanuroy911/drorange-webapp/internal/auth"
	"github.com/atanuroy911/drorange-webapp/internal/config"
	"github.com/atanuroy911/drorange-webapp/internal/core"
	"github.com/atanuroy911/drorange-webapp/internal/logging"
	"github.com/atanuroy911/drorange-webapp/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if envErr != nil {
		logger.Debug("no .env file found, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dash, err := core.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := dash.Close(context.Background()); err != nil {
			logger.Warn("failed to close dashboard", zap.Error(err))
		}
	}()

	go func() {
		if err := dash.Catalogs.Watch(ctx); err != nil {
			logger.Warn("catalog watcher stopped", zap.Error(err))
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	gate := auth.NewGate(dash.Store, cfg.Auth.JWTSecret, cfg.Auth.SecureCookie)
	srv := server.NewServer(dash, gate, cfg.Auth, logger.Named("http"))

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.Bool("auth", cfg.Auth.Enabled))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
