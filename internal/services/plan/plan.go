// Package services содержит логику бизнес-уровня для тарифных планов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/billing"
	"github.com/magabrotheeeer/saas-backend/internal/lib/slug"
	"github.com/magabrotheeeer/saas-backend/internal/models"
)

// ErrPlanHasSubscriptions запрещает деактивацию плана с живыми подписками.
var ErrPlanHasSubscriptions = errors.New("plan has active subscriptions")

// PlanRepository описывает контракт для работы с тарифными планами.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan models.Plan) (string, error)
	GetPlan(ctx context.Context, planUID string) (*models.Plan, error)
	ListPlans(ctx context.Context, activeOnly bool, limit, offset int) ([]*models.Plan, error)
	UpdatePlan(ctx context.Context, planUID string, req models.DummyPlanUpdate) error
	DeactivatePlan(ctx context.Context, planUID string) error
	CountSubscriptionsByPlan(ctx context.Context, planUID string) (int, error)
}

// BillingClient создаёт продукт и цену на платёжной платформе для нового плана.
type BillingClient interface {
	CreateProduct(ctx context.Context, name, description string) (*billing.Product, error)
	CreatePrice(ctx context.Context, productID string, unitAmount int, currency, interval string) (*billing.Price, error)
}

// Cache кэширует каталог планов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// PlanService отвечает за каталог тарифных планов.
type PlanService struct {
	repo    PlanRepository
	billing BillingClient
	cache   Cache
	log     *slog.Logger
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, billing BillingClient, cache Cache, log *slog.Logger) *PlanService {
	return &PlanService{
		repo:    repo,
		billing: billing,
		cache:   cache,
		log:     log,
	}
}

// Create создаёт план: сперва продукт и цену на платёжной платформе,
// затем запись в базе. Бесплатные планы не регистрируются на платформе.
func (s *PlanService) Create(ctx context.Context, req models.DummyPlan) (*models.Plan, error) {
	planSlug := req.Slug
	if planSlug == "" {
		planSlug = slug.Make(req.Name)
	}
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}
	plan := models.Plan{
		Name:        req.Name,
		Slug:        planSlug,
		Description: req.Description,
		PriceAmount: req.PriceAmount,
		Currency:    currency,
		Interval:    req.Interval,
		MaxUsers:    req.MaxUsers,
		MaxProjects: req.MaxProjects,
		Features:    req.Features,
	}

	if req.PriceAmount > 0 {
		description := ""
		if req.Description != nil {
			description = *req.Description
		}
		product, err := s.billing.CreateProduct(ctx, req.Name, description)
		if err != nil {
			return nil, fmt.Errorf("failed to create billing product: %w", err)
		}
		price, err := s.billing.CreatePrice(ctx, product.ID, req.PriceAmount, currency, req.Interval)
		if err != nil {
			return nil, fmt.Errorf("failed to create billing price: %w", err)
		}
		plan.BillingProductID = &product.ID
		plan.BillingPriceID = &price.ID
	}

	planUID, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new plan", slog.String("plan_uid", planUID))

	if err := s.cache.Invalidate(catalogKey); err != nil {
		s.log.Warn("failed to invalidate plan catalog cache", slog.Any("err", err))
	}
	return s.repo.GetPlan(ctx, planUID)
}

// Get возвращает план по UID.
func (s *PlanService) Get(ctx context.Context, planUID string) (*models.Plan, error) {
	return s.repo.GetPlan(ctx, planUID)
}

// List возвращает каталог планов. Первая страница активных планов кэшируется.
func (s *PlanService) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*models.Plan, error) {
	cacheable := activeOnly && offset == 0
	if cacheable {
		var cached []*models.Plan
		found, err := s.cache.Get(catalogKey, &cached)
		if err != nil {
			s.log.Warn("failed to read plan catalog cache", slog.Any("err", err))
		}
		if found && len(cached) <= limit {
			return cached, nil
		}
	}

	plans, err := s.repo.ListPlans(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.Set(catalogKey, plans, 10*time.Minute); err != nil {
			s.log.Warn("failed to cache plan catalog", slog.Any("err", err))
		}
	}
	return plans, nil
}

// Update выполняет частичное обновление плана. Цена и период не меняются,
// для них создаётся новый план.
func (s *PlanService) Update(ctx context.Context, planUID string, req models.DummyPlanUpdate) (*models.Plan, error) {
	if err := s.repo.UpdatePlan(ctx, planUID, req); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(catalogKey); err != nil {
		s.log.Warn("failed to invalidate plan catalog cache", slog.Any("err", err))
	}
	return s.repo.GetPlan(ctx, planUID)
}

// Deactivate скрывает план из каталога. План с живыми подписками
// деактивировать нельзя.
func (s *PlanService) Deactivate(ctx context.Context, planUID string) error {
	count, err := s.repo.CountSubscriptionsByPlan(ctx, planUID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrPlanHasSubscriptions
	}
	if err := s.repo.DeactivatePlan(ctx, planUID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(catalogKey); err != nil {
		s.log.Warn("failed to invalidate plan catalog cache", slog.Any("err", err))
	}
	return nil
}

const catalogKey = "plans:catalog"
