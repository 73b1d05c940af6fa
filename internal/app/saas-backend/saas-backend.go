// Package saasbackend собирает и запускает основной HTTP-сервис.
package saasbackend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/saas-backend/internal/billing"
	"github.com/magabrotheeeer/saas-backend/internal/cache"
	"github.com/magabrotheeeer/saas-backend/internal/config"
	"github.com/magabrotheeeer/saas-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/saas-backend/internal/migrations"
	adminservice "github.com/magabrotheeeer/saas-backend/internal/services/admin"
	authservice "github.com/magabrotheeeer/saas-backend/internal/services/auth"
	orgservice "github.com/magabrotheeeer/saas-backend/internal/services/organization"
	planservice "github.com/magabrotheeeer/saas-backend/internal/services/plan"
	subservice "github.com/magabrotheeeer/saas-backend/internal/services/subscription"
	usageservice "github.com/magabrotheeeer/saas-backend/internal/services/usage"
	userservice "github.com/magabrotheeeer/saas-backend/internal/services/user"
	webhookservice "github.com/magabrotheeeer/saas-backend/internal/services/webhook"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	billingClient := billing.NewClient(cfg.Billing.APIURL, cfg.Billing.SecretKey)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	authService := authservice.NewAuthService(db, db, cacheRedis, jwtMaker)
	userService := userservice.NewUserService(db)
	usageService := usageservice.NewUsageService(db, db)
	organizationService := orgservice.NewOrganizationService(db, db, db, usageService, cacheRedis, logger)
	planService := planservice.NewPlanService(db, billingClient, cacheRedis, logger)
	subscriptionService := subservice.NewSubscriptionService(db, db, db, db, db, billingClient, logger)
	webhookService := webhookservice.NewWebhookService(db, logger)
	adminService := adminservice.NewAdminService(db, db, cacheRedis)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, cfg, &Services{
		Auth:         authService,
		User:         userService,
		Organization: organizationService,
		Plan:         planService,
		Subscription: subscriptionService,
		Usage:        usageService,
		Webhook:      webhookService,
		Admin:        adminService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
