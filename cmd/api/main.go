// Package main is the entry point for the SynkCamp checkout relay.
//
// It loads configuration, builds the Stripe client, the Firestore user store
// and the metrics collector, wires the checkout and webhook handlers onto the
// core chassis, and serves requests.
//
// Inside AWS Lambda the router is served through the API Gateway v2 proxy.
// Everywhere else it runs as a standard HTTP server on the configured port
// with graceful shutdown on SIGINT/SIGTERM.
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

	"github.com/aws/aws-lambda-go/lambda"
	"golang.org/x/sync/errgroup"

	"github.com/lucascsr96/SynkCamp/internal/api/handlers"
	"github.com/lucascsr96/SynkCamp/internal/checkout"
	"github.com/lucascsr96/SynkCamp/internal/config"
	"github.com/lucascsr96/SynkCamp/internal/core"
	"github.com/lucascsr96/SynkCamp/internal/external"
	"github.com/lucascsr96/SynkCamp/internal/lambdaproxy"
	"github.com/lucascsr96/SynkCamp/internal/store"
	"github.com/lucascsr96/SynkCamp/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(secretProvider())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("synkcamp relay starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()
	srv, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		logger.Info("starting lambda handler")
		lambda.StartWithOptions(lambdaproxy.New(srv.Handler()).Handle, lambda.WithEnableSIGTERM(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server resource shutdown error", "error", err)
			}
		}))
		return nil
	}

	return runHTTPServer(srv, cfg, logger)
}

// secretProvider returns the SSM provider outside local development. Locally
// _SSM_PARAM pointers are not resolved.
func secretProvider() config.SecretProvider {
	if os.Getenv("APP_ENV") == "local" {
		return nil
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	return config.NewSSMProvider(region)
}

// buildServer wires every dependency onto a core.Server and mounts its routes.
func buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*core.Server, error) {
	registry, err := external.NewClientRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating payment client: %w", err)
	}

	collector, err := telemetry.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating metrics collector: %w", err)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = collector
	srv.HealthProbes = append(srv.HealthProbes, registry.Billing)

	// Left as a nil interface when unconfigured so the receiver can tell.
	var users checkout.UserStore
	if cfg.StoreConfigured() {
		fs, err := store.NewFirestoreUserStore(ctx, store.FirestoreConfig{
			CredentialsJSON: cfg.Store.ServiceAccountKey,
			ProjectID:       cfg.Store.ProjectID,
			Collection:      cfg.Store.UsersCollection,
		}, logger)
		if err != nil {
			logger.Error("user store unavailable; checkout.session.completed events will be acknowledged but not applied",
				"error", err,
			)
		} else {
			users = fs
			srv.Closers = append(srv.Closers, fs.Close)
		}
	} else {
		logger.Warn("FIREBASE_SERVICE_ACCOUNT_KEY not set; checkout.session.completed events will be acknowledged but not applied")
	}

	if cfg.Security.CorsOriginMatch == config.OriginMatchPrefix {
		logger.Warn("CORS prefix origin matching enabled; any origin starting with an allowed entry is accepted",
			"allowed_origins", cfg.Security.CorsAllowedOrigins,
		)
	}

	initiator := checkout.NewInitiator(registry.Billing, srv.Validator, checkout.InitiatorConfig{
		FrontendURL:        cfg.FrontendBase(),
		PaymentMethodTypes: cfg.Checkout.PaymentMethodTypes,
	}, logger, collector)

	receiver := checkout.NewReceiver(registry.StripeVerifier, users, checkout.ReceiverConfig{
		WebhookSecret:     cfg.Stripe.WebhookSecret,
		StoreTimeout:      cfg.Store.Timeout,
		RetryOnApplyError: cfg.Webhook.RetryOnApplyError,
	}, logger, collector)

	checkoutHandler := handlers.NewCheckoutHandler(initiator, logger)
	webhookHandler := handlers.NewStripeWebhookHandler(receiver, cfg.Webhook.MaxBodyBytes, logger)
	srv.RouteRegistrars = append(srv.RouteRegistrars,
		checkoutHandler.RegisterRoutes,
		webhookHandler.RegisterRoutes,
	)

	srv.MountRoutes()
	return srv, nil
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer serves until a shutdown signal arrives or the listener fails.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a JSON slog.Logger for the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
