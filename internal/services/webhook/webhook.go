// Package services содержит обработку событий вебхуков платёжной платформы.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/billing"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	"github.com/magabrotheeeer/saas-backend/internal/models"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// SubscriptionRepository синхронизирует состояние подписок с платёжной
// платформой.
type SubscriptionRepository interface {
	SyncSubscriptionStatus(ctx context.Context, billingID, status string,
		periodStart, periodEnd *time.Time, cancelAtPeriodEnd bool) error
	GetSubscriptionByBillingID(ctx context.Context, billingID string) (*models.Subscription, error)
}

// WebhookService применяет события платёжной платформы к локальным подпискам.
type WebhookService struct {
	subs SubscriptionRepository
	log  *slog.Logger
}

// NewWebhookService создает новый экземпляр WebhookService.
func NewWebhookService(subs SubscriptionRepository, log *slog.Logger) *WebhookService {
	return &WebhookService{subs: subs, log: log}
}

// HandleEvent обрабатывает одно событие. Неизвестные типы событий
// игнорируются, событие по незнакомой подписке не считается ошибкой.
func (s *WebhookService) HandleEvent(ctx context.Context, event *billing.Event) error {
	log := s.log.With(slog.String("event_id", event.ID), slog.String("event_type", event.Type))

	switch event.Type {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated,
		billing.EventSubscriptionTrialWillEnd:
		sub, err := billing.SubscriptionFromEvent(event)
		if err != nil {
			return err
		}
		return s.syncFromProvider(ctx, log, sub, billing.MapStatus(sub.Status))

	case billing.EventSubscriptionDeleted:
		sub, err := billing.SubscriptionFromEvent(event)
		if err != nil {
			return err
		}
		return s.syncFromProvider(ctx, log, sub, models.StatusCanceled)

	case billing.EventInvoicePaid:
		invoice, err := billing.InvoiceFromEvent(event)
		if err != nil {
			return err
		}
		if invoice.SubscriptionID == "" {
			return nil
		}
		// Оплата реанимирует только подписки, ждущие платежа.
		return s.applyStatus(ctx, log, invoice.SubscriptionID, models.StatusActive,
			models.StatusIncomplete, models.StatusPastDue)

	case billing.EventInvoicePaymentFailed:
		invoice, err := billing.InvoiceFromEvent(event)
		if err != nil {
			return err
		}
		if invoice.SubscriptionID == "" {
			return nil
		}
		return s.applyStatus(ctx, log, invoice.SubscriptionID, models.StatusPastDue,
			models.StatusActive)

	default:
		log.Info("ignoring unhandled webhook event")
		return nil
	}
}

func (s *WebhookService) syncFromProvider(ctx context.Context, log *slog.Logger,
	sub *billing.Subscription, status string) error {
	var periodStart, periodEnd *time.Time
	if sub.CurrentPeriodStart > 0 {
		start := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		periodStart = &start
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		periodEnd = &end
	}

	err := s.subs.SyncSubscriptionStatus(ctx, sub.ID, status, periodStart, periodEnd, sub.CancelAtPeriodEnd)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("webhook for unknown subscription", slog.String("billing_subscription_id", sub.ID))
		return nil
	}
	if err != nil {
		log.Error("failed to sync subscription", sl.Err(err))
		return err
	}
	log.Info("synced subscription from webhook",
		slog.String("billing_subscription_id", sub.ID),
		slog.String("status", status))
	return nil
}

// applyStatus переводит подписку в status, если её текущий статус входит
// в fromStatuses. Событие счёта по подписке в другом статусе игнорируется.
func (s *WebhookService) applyStatus(ctx context.Context, log *slog.Logger,
	billingID, status string, fromStatuses ...string) error {
	current, err := s.subs.GetSubscriptionByBillingID(ctx, billingID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("webhook for unknown subscription", slog.String("billing_subscription_id", billingID))
		return nil
	}
	if err != nil {
		return err
	}

	allowed := false
	for _, from := range fromStatuses {
		if current.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		log.Info("invoice event does not apply to subscription status",
			slog.String("billing_subscription_id", billingID),
			slog.String("current_status", current.Status),
			slog.String("target_status", status))
		return nil
	}

	err = s.subs.SyncSubscriptionStatus(ctx, billingID, status,
		current.CurrentPeriodStart, current.CurrentPeriodEnd, current.CancelAtPeriodEnd)
	if err != nil {
		log.Error("failed to sync subscription", sl.Err(err))
		return err
	}
	log.Info("synced subscription from invoice event",
		slog.String("billing_subscription_id", billingID),
		slog.String("status", status))
	return nil
}
