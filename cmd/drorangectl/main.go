package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atanuroy911/drorange-webapp/internal/config"
	"github.com/atanuroy911/drorange-webapp/internal/core"
	"github.com/atanuroy911/drorange-webapp/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	localeCode string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "drorangectl",
	Short:         "Operator tool for the Dr. Orange dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		path := configPath
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		if path == "" {
			path = "config/config.toml"
		}

		var err error
		cfg, err = config.LoadOrDefault(path)
		if err != nil {
			return err
		}
		cfg.ApplyEnv()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// Logs go to stderr so command output stays clean.
		logCfg := cfg.Log
		if !verbose && logCfg.Level == "info" {
			logCfg.Level = "warn"
		}
		logger, err = logging.New(logCfg, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $CONFIG_PATH or config/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&localeCode, "locale", "l", "", "View locale: cn, en, bn or fa (default from config)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withDashboard opens the dashboard for the duration of fn.
func withDashboard(fn func(ctx context.Context, d *core.Dashboard) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := core.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(context.Background()); err != nil {
			logger.Warn("failed to close dashboard", zap.Error(err))
		}
	}()
	return fn(ctx, d)
}
