package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/saas-backend/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListExpiringSubscriptions(ctx context.Context, daysLeft int) ([]*models.SubscriptionNotice, error) {
	args := m.Called(ctx, daysLeft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionNotice), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSchedulerService_RunFindExpiring(t *testing.T) {
	notice := &models.SubscriptionNotice{
		SubscriptionUID:  "sub-1",
		OrganizationName: "Acme",
		OwnerEmail:       "owner@example.com",
		PlanName:         "Pro",
		Status:           models.StatusActive,
		PeriodEnd:        time.Now().Add(24 * time.Hour),
		DaysLeft:         1,
	}

	tests := []struct {
		name       string
		setupMocks func(*MockRepository)
	}{
		{
			name: "нет истекающих подписок",
			setupMocks: func(r *MockRepository) {
				r.On("ListExpiringSubscriptions", mock.Anything, 3).
					Return([]*models.SubscriptionNotice{}, nil).Once()
			},
		},
		{
			name: "ошибка репозитория не роняет планировщик",
			setupMocks: func(r *MockRepository) {
				r.On("ListExpiringSubscriptions", mock.Anything, 3).
					Return(nil, errors.New("db error")).Once()
			},
		},
		{
			name: "подписки с другим статусом отфильтровываются",
			setupMocks: func(r *MockRepository) {
				// Статус active не совпадает с trialing, до публикации не доходит
				r.On("ListExpiringSubscriptions", mock.Anything, 3).
					Return([]*models.SubscriptionNotice{notice}, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			service := NewSchedulerService(repo, newNoopLogger())

			tt.setupMocks(repo)

			service.runFindExpiring(context.Background(), nil, 3, models.StatusTrialing, "trial.ending")

			repo.AssertExpectations(t)
		})
	}
}

func TestSchedulerService_FindExpiringTrialsStopsOnContextCancel(t *testing.T) {
	repo := new(MockRepository)
	service := NewSchedulerService(repo, newNoopLogger())

	repo.On("ListExpiringSubscriptions", mock.Anything, 3).
		Return([]*models.SubscriptionNotice{}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		service.FindExpiringTrials(ctx, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
	repo.AssertExpectations(t)
}

func TestSchedulerService_NewSchedulerService(t *testing.T) {
	repo := new(MockRepository)
	logger := newNoopLogger()

	service := NewSchedulerService(repo, logger)

	assert.NotNil(t, service)
	assert.Equal(t, repo, service.repo)
	assert.Equal(t, logger, service.log)
}
