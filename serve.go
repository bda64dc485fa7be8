package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"movie-app/config"
	"movie-app/database"
	authapi "movie-app/internal/api/auth"
	"movie-app/internal/api/billing"
	"movie-app/internal/api/httputil"
	stripewebhooks "movie-app/internal/api/stripewebhook"
	usersapi "movie-app/internal/api/users"
	routes "movie-app/internal/app/http"
	"movie-app/internal/app/http/middleware"
	"movie-app/internal/auth"
	"movie-app/internal/domain/plans"
	"movie-app/internal/favorites"
	"movie-app/internal/infra/store"
	stripeinfra "movie-app/internal/infra/stripe"
	"movie-app/internal/pkg/logger"
	"movie-app/internal/pkg/metrics"
	"movie-app/internal/pkg/validator"
	"movie-app/internal/session"
	"movie-app/internal/subscription"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

			db, err := database.Open(cfg.DB, log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info().Str("driver", cfg.DB.Driver).Msg("schema migrated")
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DB, log)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, auth.WithTTL(cfg.Auth.SessionTTL))
	if err != nil {
		return err
	}

	st := store.New(db)
	m := metrics.New()
	v := validator.New()
	table := plans.NewTable(cfg.Stripe.PremiumPriceID, cfg.Stripe.ProPriceID)
	stripeClient := stripeinfra.New(cfg.Stripe.SecretKey)
	cookie := httputil.CookieConfig{
		MaxAge: tokens.TTL(),
		Secure: cfg.Auth.CookieSecure || cfg.IsProduction(),
	}

	sessions := session.NewManager(st, tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost), log)
	reconciler := subscription.NewReconciler(st, stripeClient, table, log)

	authHandler := authapi.NewHandler(sessions, v, cookie, m, log)
	var googleHandler *authapi.GoogleHandler
	if cfg.Google.Enabled() {
		g, err := authapi.NewGoogleAuthenticator(ctx, cfg.Google)
		if err != nil {
			return err
		}
		googleHandler = authapi.NewGoogleHandler(authHandler, g, cfg.Google.FrontendRedirect)
	} else {
		log.Info().Msg("google sign-in disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go sweepVisitors(ctx, limiter)

	router := routes.NewRouter(routes.Deps{
		Auth:        authHandler,
		Google:      googleHandler,
		Users:       usersapi.NewHandler(favorites.NewManager(st, log), v, log),
		Billing:     billing.NewHandler(reconciler, stripeClient, table, cfg.AppURL, v, log),
		Webhook:     stripewebhooks.NewHandler(stripeinfra.NewVerifier(cfg.Stripe.WebhookSecret), reconciler, st, m, log),
		Sessions:    sessions,
		Health:      st,
		Metrics:     m,
		Log:         log,
		Cookie:      cookie,
		CORSOrigin:  cfg.CORSOrigin,
		AuthLimiter: limiter,

		TrustedProxies: cfg.TrustedProxies,
	})

	return run(ctx, log, &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, cfg.ShutdownTTL)
}

func run(ctx context.Context, log zerolog.Logger, srv *http.Server, shutdownTTL time.Duration) error {
	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTTL)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func sweepVisitors(ctx context.Context, rl *middleware.RateLimiter) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Cleanup()
		}
	}
}
