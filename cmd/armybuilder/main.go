package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"armybuilder/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfg    config.Config
	logger *zap.Logger
	level  = zap.NewAtomicLevel()
)

var rootCmd = &cobra.Command{
	Use:   "armybuilder",
	Short: "Army list builder backend",
	Long: `armybuilder serves the army datasets over HTTP, drives the unit
editor sessions and prices army lists.

Run "armybuilder serve" to start the API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Flags())
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		zc := zap.NewProductionConfig()
		zc.Level = level
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	config.AddFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(serveCmd, validateCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
