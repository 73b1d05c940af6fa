// Package services содержит планировщик уведомлений об окончании
// пробных и оплаченных периодов подписок.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	"github.com/magabrotheeeer/saas-backend/internal/models"
	"github.com/streadway/amqp"
)

// SubscriptionRepository находит подписки, период которых скоро заканчивается.
type SubscriptionRepository interface {
	ListExpiringSubscriptions(ctx context.Context, daysLeft int) ([]*models.SubscriptionNotice, error)
}

// SchedulerService периодически публикует уведомления в очередь рассылки.
type SchedulerService struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		log:  log,
	}
}

// FindExpiringTrials раз в сутки ищет пробные периоды, заканчивающиеся
// через три дня, и публикует уведомления.
func (s *SchedulerService) FindExpiringTrials(ctx context.Context, channel *amqp.Channel) {
	s.runFindExpiring(ctx, channel, 3, models.StatusTrialing, "trial.ending")

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runFindExpiring(ctx, channel, 3, models.StatusTrialing, "trial.ending")
		}
	}
}

// FindExpiringPeriods раз в 12 часов ищет оплаченные периоды,
// заканчивающиеся завтра, и публикует уведомления.
func (s *SchedulerService) FindExpiringPeriods(ctx context.Context, channel *amqp.Channel) {
	s.runFindExpiring(ctx, channel, 1, models.StatusActive, "period.ending")

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runFindExpiring(ctx, channel, 1, models.StatusActive, "period.ending")
		}
	}
}

func (s *SchedulerService) runFindExpiring(ctx context.Context, channel *amqp.Channel,
	daysLeft int, status, routingKey string) {
	s.log.Info("starting expiring subscriptions scan",
		slog.Int("days_left", daysLeft), slog.String("status", status))

	notices, err := s.repo.ListExpiringSubscriptions(ctx, daysLeft)
	if err != nil {
		s.log.Error("failed to find expiring subscriptions", sl.Err(err))
		return
	}
	if len(notices) == 0 {
		s.log.Info("no expiring subscriptions found")
		return
	}
	s.log.Info("found expiring subscriptions", slog.Int("count", len(notices)))

	for _, notice := range notices {
		if notice.Status != status {
			continue
		}
		if err := rabbitmq.PublishMessage(channel, "notifications", routingKey, notice); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
