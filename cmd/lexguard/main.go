// LexGuard - Withholding tax checks for every MSME payment.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyndhavamahesh345/LexGuard/internal/config"
	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	cfgFile string
	cfg     *domain.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lexguard",
		Short: "Tax compliance checks for business payments",
		Long: `LexGuard classifies a payment, finds the withholding rules that apply,
checks annualized thresholds and explains what to deduct before paying.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(versionCmd())
	return root
}

func initConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(loaded.Logging, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg = loaded
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
