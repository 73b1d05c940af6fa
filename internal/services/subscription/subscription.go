// Package services содержит логику бизнес-уровня для подписок организаций.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/billing"
	"github.com/magabrotheeeer/saas-backend/internal/models"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

var (
	// ErrNotMember возвращается, когда пользователь не состоит в организации.
	ErrNotMember = errors.New("user is not a member of the organization")
	// ErrInsufficientRole возвращается при нехватке прав на операцию.
	ErrInsufficientRole = errors.New("insufficient role for this operation")
	// ErrAlreadySubscribed запрещает вторую живую подписку у организации.
	ErrAlreadySubscribed = errors.New("organization already has an active subscription")
	// ErrPlanInactive запрещает подписку на скрытый план.
	ErrPlanInactive = errors.New("plan is not active")
	// ErrAlreadyCanceled запрещает повторную отмену подписки.
	ErrAlreadyCanceled = errors.New("subscription is already canceled")
)

// SubscriptionRepository описывает контракт для работы с подписками.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (string, error)
	GetSubscription(ctx context.Context, subscriptionUID string) (*models.Subscription, error)
	GetActiveSubscriptionByOrganization(ctx context.Context, orgUID string) (*models.Subscription, error)
	ListSubscriptionsByOrganization(ctx context.Context, orgUID string) ([]*models.Subscription, error)
	UpdateSubscriptionPlan(ctx context.Context, subscriptionUID, planUID string) error
	SetSubscriptionCancelAtPeriodEnd(ctx context.Context, subscriptionUID string, cancel bool) error
	CancelSubscription(ctx context.Context, subscriptionUID string) error
}

// OrganizationRepository даёт доступ к организации и её платёжному клиенту.
type OrganizationRepository interface {
	GetOrganization(ctx context.Context, orgUID string) (*models.Organization, error)
	SetOrganizationBillingCustomer(ctx context.Context, orgUID, customerID string) error
}

// MemberRepository проверяет членство и роль пользователя.
type MemberRepository interface {
	GetMembership(ctx context.Context, orgUID, userUID string) (*models.OrganizationMember, error)
}

// PlanRepository читает тарифные планы.
type PlanRepository interface {
	GetPlan(ctx context.Context, planUID string) (*models.Plan, error)
}

// UserRepository читает владельца организации для создания платёжного клиента.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// BillingClient описывает операции платёжной платформы над подписками.
type BillingClient interface {
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*billing.Customer, error)
	CreateSubscription(ctx context.Context, customerID, priceID string, trialPeriodDays int) (*billing.Subscription, error)
	UpdateSubscription(ctx context.Context, subscriptionID string, priceID *string, cancelAtPeriodEnd *bool) (*billing.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// SubscriptionService отвечает за жизненный цикл подписок организаций.
type SubscriptionService struct {
	subs    SubscriptionRepository
	orgs    OrganizationRepository
	members MemberRepository
	plans   PlanRepository
	users   UserRepository
	billing BillingClient
	log     *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(subs SubscriptionRepository, orgs OrganizationRepository,
	members MemberRepository, plans PlanRepository, users UserRepository,
	billingClient BillingClient, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		subs:    subs,
		orgs:    orgs,
		members: members,
		plans:   plans,
		users:   users,
		billing: billingClient,
		log:     log,
	}
}

// Create оформляет подписку организации на план. Для платных планов
// организация сначала регистрируется как клиент платёжной платформы,
// затем создаётся подписка на стороне платформы.
func (s *SubscriptionService) Create(ctx context.Context, userUID string, req models.DummySubscription) (*models.Subscription, error) {
	if err := s.requireBillingRole(ctx, req.OrganizationUID, userUID); err != nil {
		return nil, err
	}

	if _, err := s.subs.GetActiveSubscriptionByOrganization(ctx, req.OrganizationUID); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	plan, err := s.plans.GetPlan(ctx, req.PlanUID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	sub := models.Subscription{
		OrganizationUID: req.OrganizationUID,
		PlanUID:         req.PlanUID,
		Status:          models.StatusActive,
	}
	if req.TrialPeriodDays > 0 {
		sub.Status = models.StatusTrialing
	}

	if plan.PriceAmount > 0 && plan.BillingPriceID != nil {
		customerID, err := s.ensureBillingCustomer(ctx, req.OrganizationUID)
		if err != nil {
			return nil, err
		}
		providerSub, err := s.billing.CreateSubscription(ctx, customerID, *plan.BillingPriceID, req.TrialPeriodDays)
		if err != nil {
			return nil, fmt.Errorf("failed to create billing subscription: %w", err)
		}
		sub.BillingSubscriptionID = &providerSub.ID
		sub.Status = billing.MapStatus(providerSub.Status)
		start := time.Unix(providerSub.CurrentPeriodStart, 0).UTC()
		end := time.Unix(providerSub.CurrentPeriodEnd, 0).UTC()
		sub.CurrentPeriodStart = &start
		sub.CurrentPeriodEnd = &end
	} else {
		// Бесплатный план живёт без платёжной платформы, период ведём сами.
		start := time.Now().UTC()
		end := start.AddDate(0, 1, 0)
		if plan.Interval == models.IntervalYear {
			end = start.AddDate(1, 0, 0)
		}
		if req.TrialPeriodDays > 0 {
			end = start.AddDate(0, 0, req.TrialPeriodDays)
		}
		sub.CurrentPeriodStart = &start
		sub.CurrentPeriodEnd = &end
	}

	subscriptionUID, err := s.subs.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new subscription",
		slog.String("subscription_uid", subscriptionUID),
		slog.String("organization_uid", req.OrganizationUID))

	return s.subs.GetSubscription(ctx, subscriptionUID)
}

// Get возвращает подписку, если пользователь состоит в её организации.
func (s *SubscriptionService) Get(ctx context.Context, subscriptionUID, userUID string) (*models.Subscription, error) {
	sub, err := s.subs.GetSubscription(ctx, subscriptionUID)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.GetMembership(ctx, sub.OrganizationUID, userUID); err != nil {
		return nil, ErrNotMember
	}
	return sub, nil
}

// ListByOrganization возвращает подписки организации, новые первыми.
func (s *SubscriptionService) ListByOrganization(ctx context.Context, orgUID, userUID string) ([]*models.Subscription, error) {
	if _, err := s.members.GetMembership(ctx, orgUID, userUID); err != nil {
		return nil, ErrNotMember
	}
	return s.subs.ListSubscriptionsByOrganization(ctx, orgUID)
}

// Update меняет план подписки и/или флаг отмены в конце периода.
// Изменения сперва применяются на платёжной платформе.
func (s *SubscriptionService) Update(ctx context.Context, subscriptionUID, userUID string, req models.DummySubscriptionUpdate) (*models.Subscription, error) {
	sub, err := s.subs.GetSubscription(ctx, subscriptionUID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBillingRole(ctx, sub.OrganizationUID, userUID); err != nil {
		return nil, err
	}

	var newPriceID *string
	if req.PlanUID != nil {
		plan, err := s.plans.GetPlan(ctx, *req.PlanUID)
		if err != nil {
			return nil, err
		}
		if !plan.IsActive {
			return nil, ErrPlanInactive
		}
		newPriceID = plan.BillingPriceID
	}

	if sub.BillingSubscriptionID != nil && (newPriceID != nil || req.CancelAtPeriodEnd != nil) {
		if _, err := s.billing.UpdateSubscription(ctx, *sub.BillingSubscriptionID, newPriceID, req.CancelAtPeriodEnd); err != nil {
			return nil, fmt.Errorf("failed to update billing subscription: %w", err)
		}
	}

	if req.PlanUID != nil {
		if err := s.subs.UpdateSubscriptionPlan(ctx, subscriptionUID, *req.PlanUID); err != nil {
			return nil, err
		}
	}
	if req.CancelAtPeriodEnd != nil {
		if err := s.subs.SetSubscriptionCancelAtPeriodEnd(ctx, subscriptionUID, *req.CancelAtPeriodEnd); err != nil {
			return nil, err
		}
	}
	return s.subs.GetSubscription(ctx, subscriptionUID)
}

// Cancel отменяет подписку: немедленно либо в конце оплаченного периода,
// сперва на платёжной платформе. Уже отменённую подписку отменить нельзя.
func (s *SubscriptionService) Cancel(ctx context.Context, subscriptionUID, userUID string, immediately bool) (*models.Subscription, error) {
	sub, err := s.subs.GetSubscription(ctx, subscriptionUID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBillingRole(ctx, sub.OrganizationUID, userUID); err != nil {
		return nil, err
	}
	if sub.Status == models.StatusCanceled {
		return nil, ErrAlreadyCanceled
	}

	switch {
	case sub.BillingSubscriptionID == nil:
		// Бесплатная подписка живёт без платёжной платформы, отменяется сразу.
		if err := s.subs.CancelSubscription(ctx, subscriptionUID); err != nil {
			return nil, err
		}
	case immediately:
		if err := s.billing.CancelSubscription(ctx, *sub.BillingSubscriptionID); err != nil {
			return nil, fmt.Errorf("failed to cancel billing subscription: %w", err)
		}
		if err := s.subs.CancelSubscription(ctx, subscriptionUID); err != nil {
			return nil, err
		}
	default:
		cancel := true
		if _, err := s.billing.UpdateSubscription(ctx, *sub.BillingSubscriptionID, nil, &cancel); err != nil {
			return nil, fmt.Errorf("failed to cancel billing subscription: %w", err)
		}
		if err := s.subs.SetSubscriptionCancelAtPeriodEnd(ctx, subscriptionUID, true); err != nil {
			return nil, err
		}
	}

	s.log.Info("canceled subscription",
		slog.String("subscription_uid", subscriptionUID),
		slog.Bool("immediately", immediately))
	return s.subs.GetSubscription(ctx, subscriptionUID)
}

// ensureBillingCustomer возвращает ID клиента платёжной платформы,
// создавая его при первом платном оформлении.
func (s *SubscriptionService) ensureBillingCustomer(ctx context.Context, orgUID string) (string, error) {
	org, err := s.orgs.GetOrganization(ctx, orgUID)
	if err != nil {
		return "", err
	}
	if org.BillingCustomerID != nil {
		return *org.BillingCustomerID, nil
	}

	owner, err := s.users.GetUser(ctx, org.OwnerUID)
	if err != nil {
		return "", err
	}
	customer, err := s.billing.CreateCustomer(ctx, owner.Email, org.Name, map[string]string{
		"organization_id": org.UID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create billing customer: %w", err)
	}
	if err := s.orgs.SetOrganizationBillingCustomer(ctx, orgUID, customer.ID); err != nil {
		return "", err
	}
	return customer.ID, nil
}

// requireBillingRole разрешает операции с подпиской владельцу
// и администраторам организации.
func (s *SubscriptionService) requireBillingRole(ctx context.Context, orgUID, userUID string) error {
	membership, err := s.members.GetMembership(ctx, orgUID, userUID)
	if err != nil {
		return ErrNotMember
	}
	if membership.Role != models.RoleOwner && membership.Role != models.RoleAdmin {
		return ErrInsufficientRole
	}
	return nil
}
