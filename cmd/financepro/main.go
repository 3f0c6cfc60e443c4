package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financepro/internal/amqp"
	"financepro/internal/cli"
	"financepro/internal/config"
	apphttp "financepro/internal/http"
	applog "financepro/internal/log"
	"financepro/internal/services"
	"financepro/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backend := cli.InitStore(context.Background(), logger, cfg)

	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The API keeps serving; the mirror catches up on the next change.
			logger.Warn("AMQP unavailable, change events disabled", applog.FieldError, err)
		} else {
			amqpClient = c
			publisher = c
			logger.Info("AMQP change events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	finance, err := cli.NewFinance(context.Background(), logger, cfg, backend.Store, publisher)
	if err != nil {
		logger.Error("Failed to initialize finance service", applog.FieldError, err)
		os.Exit(1)
	}

	var provider session.IdentityProvider
	if cfg.GoogleSignInEnabled() {
		provider = session.NewGoogleProvider(cfg.GoogleOAuthClientID, cfg.GoogleOAuthClientSecret, cfg.GoogleOAuthRedirectURL)
	} else {
		logger.Warn("Google sign-in is not configured")
	}
	sessions := session.NewManager([]byte(cfg.SessionSecret), cfg.SessionTTL, provider)
	unsubscribe := sessions.OnSessionChange(func(e session.Event) {
		if e.Kind == session.SignedOut {
			finance.ForgetUser(e.Session.User.ID)
		}
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Finance:            finance.FinanceService,
		Sessions:           sessions,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              finance.Ping,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		unsubscribe()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
		if err := finance.Close(); err != nil {
			logger.Error("Store close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting financepro server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
