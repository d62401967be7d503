package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iudanet/babysteps/internal/config"
	"github.com/iudanet/babysteps/internal/server/auth"
	"github.com/iudanet/babysteps/internal/server/handlers"
	"github.com/iudanet/babysteps/internal/server/metrics"
	"github.com/iudanet/babysteps/internal/server/middleware"
	"github.com/iudanet/babysteps/internal/server/router"
	"github.com/iudanet/babysteps/internal/server/session"
	"github.com/iudanet/babysteps/internal/server/storage/sqlite"
	"github.com/iudanet/babysteps/internal/server/token"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Секрет проверяется при старте, а не на каждом запросе
	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		return err
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, logger, collector,
		middleware.WithTrustedProxies(cfg.TrustedProxies))
	defer limiter.Stop()

	providers := map[string]handlers.OAuthProvider{}
	if cfg.GoogleEnabled() {
		providers["google"] = handlers.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret)
	}

	handler := router.New(&router.Deps{
		Logger:         logger,
		Store:          store,
		Tokens:         codec,
		Authenticator:  auth.NewAuthenticator(logger, codec, store, auth.WithFailureRecorder(collector)),
		Metrics:        collector,
		Gatherer:       reg,
		AuthLimiter:    limiter,
		OAuthProviders: providers,
		Cookies: session.CookieConfig{
			Domain:      cfg.CookieDomain,
			ForceSecure: cfg.CookieSecure,
		},
		OAuthBaseURL: cfg.OAuthRedirectBase,
		OAuthSuccess: cfg.OAuthSuccessURL,
		Version:      Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("BabySteps server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", Version),
			slog.Bool("google_oauth", cfg.GoogleEnabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func printVersion() {
	fmt.Printf("BabySteps Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
