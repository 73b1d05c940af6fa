package services_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-backend/internal/billing"
	"github.com/magabrotheeeer/saas-backend/internal/models"
	services "github.com/magabrotheeeer/saas-backend/internal/services/plan"
)

// Мок для PlanRepository
type PlanRepoMock struct {
	mock.Mock
}

func (m *PlanRepoMock) CreatePlan(ctx context.Context, plan models.Plan) (string, error) {
	args := m.Called(ctx, plan)
	return args.String(0), args.Error(1)
}

func (m *PlanRepoMock) GetPlan(ctx context.Context, planUID string) (*models.Plan, error) {
	args := m.Called(ctx, planUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *PlanRepoMock) ListPlans(ctx context.Context, activeOnly bool, limit, offset int) ([]*models.Plan, error) {
	args := m.Called(ctx, activeOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *PlanRepoMock) UpdatePlan(ctx context.Context, planUID string, req models.DummyPlanUpdate) error {
	args := m.Called(ctx, planUID, req)
	return args.Error(0)
}

func (m *PlanRepoMock) DeactivatePlan(ctx context.Context, planUID string) error {
	args := m.Called(ctx, planUID)
	return args.Error(0)
}

func (m *PlanRepoMock) CountSubscriptionsByPlan(ctx context.Context, planUID string) (int, error) {
	args := m.Called(ctx, planUID)
	return args.Int(0), args.Error(1)
}

// Мок для BillingClient
type BillingClientMock struct {
	mock.Mock
}

func (m *BillingClientMock) CreateProduct(ctx context.Context, name, description string) (*billing.Product, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Product), args.Error(1)
}

func (m *BillingClientMock) CreatePrice(ctx context.Context, productID string, unitAmount int, currency, interval string) (*billing.Price, error) {
	args := m.Called(ctx, productID, unitAmount, currency, interval)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Price), args.Error(1)
}

// Мок для Cache
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newTestService(repo *PlanRepoMock, billingClient *BillingClientMock, cacheMock *CacheMock) *services.PlanService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return services.NewPlanService(repo, billingClient, cacheMock, logger)
}

func TestPlanService_CreatePaidPlanRegistersOnBilling(t *testing.T) {
	repo := new(PlanRepoMock)
	billingClient := new(BillingClientMock)
	cacheMock := new(CacheMock)
	svc := newTestService(repo, billingClient, cacheMock)

	billingClient.On("CreateProduct", mock.Anything, "Pro Plan", "").
		Return(&billing.Product{ID: "prod_1"}, nil).Once()
	billingClient.On("CreatePrice", mock.Anything, "prod_1", 2900, "usd", models.IntervalMonth).
		Return(&billing.Price{ID: "price_1"}, nil).Once()
	repo.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.Plan) bool {
		return p.Slug == "pro-plan" &&
			p.Currency == "usd" &&
			p.BillingProductID != nil && *p.BillingProductID == "prod_1" &&
			p.BillingPriceID != nil && *p.BillingPriceID == "price_1"
	})).Return("plan-1", nil).Once()
	cacheMock.On("Invalidate", "plans:catalog").Return(nil).Once()
	repo.On("GetPlan", mock.Anything, "plan-1").
		Return(&models.Plan{UID: "plan-1", Name: "Pro Plan"}, nil).Once()

	plan, err := svc.Create(context.Background(), models.DummyPlan{
		Name:        "Pro Plan",
		PriceAmount: 2900,
		Interval:    models.IntervalMonth,
	})
	require.NoError(t, err)
	assert.Equal(t, "plan-1", plan.UID)

	billingClient.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestPlanService_CreateFreePlanSkipsBilling(t *testing.T) {
	repo := new(PlanRepoMock)
	billingClient := new(BillingClientMock)
	cacheMock := new(CacheMock)
	svc := newTestService(repo, billingClient, cacheMock)

	repo.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.Plan) bool {
		return p.BillingProductID == nil && p.BillingPriceID == nil
	})).Return("plan-free", nil).Once()
	cacheMock.On("Invalidate", "plans:catalog").Return(nil).Once()
	repo.On("GetPlan", mock.Anything, "plan-free").
		Return(&models.Plan{UID: "plan-free", Name: "Free"}, nil).Once()

	_, err := svc.Create(context.Background(), models.DummyPlan{
		Name:     "Free",
		Interval: models.IntervalMonth,
	})
	require.NoError(t, err)

	billingClient.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlanService_ListUsesCatalogCache(t *testing.T) {
	repo := new(PlanRepoMock)
	cacheMock := new(CacheMock)
	svc := newTestService(repo, new(BillingClientMock), cacheMock)

	cacheMock.On("Get", "plans:catalog", mock.Anything).
		Return(true, nil).
		Run(func(args mock.Arguments) {
			plans := args.Get(1).(*[]*models.Plan)
			*plans = []*models.Plan{{UID: "plan-1", Name: "Pro"}}
		}).Once()

	plans, err := svc.List(context.Background(), true, 50, 0)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "Pro", plans[0].Name)

	repo.AssertNotCalled(t, "ListPlans", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPlanService_ListCacheMissFillsCache(t *testing.T) {
	repo := new(PlanRepoMock)
	cacheMock := new(CacheMock)
	svc := newTestService(repo, new(BillingClientMock), cacheMock)

	fromDB := []*models.Plan{{UID: "plan-1"}, {UID: "plan-2"}}
	cacheMock.On("Get", "plans:catalog", mock.Anything).Return(false, nil).Once()
	repo.On("ListPlans", mock.Anything, true, 50, 0).Return(fromDB, nil).Once()
	cacheMock.On("Set", "plans:catalog", fromDB, 10*time.Minute).Return(nil).Once()

	plans, err := svc.List(context.Background(), true, 50, 0)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
	cacheMock.AssertExpectations(t)
}

func TestPlanService_ListSecondPageBypassesCache(t *testing.T) {
	repo := new(PlanRepoMock)
	cacheMock := new(CacheMock)
	svc := newTestService(repo, new(BillingClientMock), cacheMock)

	repo.On("ListPlans", mock.Anything, true, 50, 50).
		Return([]*models.Plan{}, nil).Once()

	_, err := svc.List(context.Background(), true, 50, 50)
	require.NoError(t, err)
	cacheMock.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestPlanService_DeactivateWithActiveSubscriptions(t *testing.T) {
	repo := new(PlanRepoMock)
	cacheMock := new(CacheMock)
	svc := newTestService(repo, new(BillingClientMock), cacheMock)

	repo.On("CountSubscriptionsByPlan", mock.Anything, "plan-1").Return(3, nil).Once()

	err := svc.Deactivate(context.Background(), "plan-1")
	assert.ErrorIs(t, err, services.ErrPlanHasSubscriptions)
	repo.AssertNotCalled(t, "DeactivatePlan", mock.Anything, mock.Anything)
}

func TestPlanService_Deactivate(t *testing.T) {
	repo := new(PlanRepoMock)
	cacheMock := new(CacheMock)
	svc := newTestService(repo, new(BillingClientMock), cacheMock)

	repo.On("CountSubscriptionsByPlan", mock.Anything, "plan-1").Return(0, nil).Once()
	repo.On("DeactivatePlan", mock.Anything, "plan-1").Return(nil).Once()
	cacheMock.On("Invalidate", "plans:catalog").Return(nil).Once()

	err := svc.Deactivate(context.Background(), "plan-1")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPlanService_CreateBillingFailure(t *testing.T) {
	repo := new(PlanRepoMock)
	billingClient := new(BillingClientMock)
	svc := newTestService(repo, billingClient, new(CacheMock))

	billingClient.On("CreateProduct", mock.Anything, "Pro", "").
		Return(nil, errors.New("billing unavailable")).Once()

	_, err := svc.Create(context.Background(), models.DummyPlan{
		Name:        "Pro",
		PriceAmount: 2900,
		Interval:    models.IntervalMonth,
	})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "CreatePlan", mock.Anything, mock.Anything)
}
