package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/iudanet/babysteps/internal/client/api"
	"github.com/iudanet/babysteps/internal/client/auth"
	"github.com/iudanet/babysteps/internal/client/cli"
	"github.com/iudanet/babysteps/internal/client/iocli"
	"github.com/iudanet/babysteps/internal/client/storage/boltdb"
	"github.com/iudanet/babysteps/internal/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.LoadClient(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		os.Exit(0)
	}

	// Логи клиента идут в stderr, чтобы не смешиваться с выводом команд
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.ClientConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	platform, err := auth.PlatformByName(cfg.Platform)
	if err != nil {
		return err
	}

	stdio := iocli.NewStdio()

	// help не требует базы
	if len(cfg.Args) == 0 {
		return cli.New(stdio, nil, nil).Run(ctx, cfg.Args)
	}

	// Открываем BoltDB storage
	store, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close database", slog.Any("error", err))
		}
	}()

	var opts []api.Option
	if platform.UseCookies {
		opts = append(opts, api.WithCookieJar())
	}
	apiClient := api.NewClient(cfg.ServerURL, opts...)

	manager := auth.NewManager(apiClient, store, platform, logger)

	return cli.New(stdio, manager, apiClient).Run(ctx, cfg.Args)
}

func printVersion() {
	fmt.Printf("BabySteps Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
