// Package services содержит логику бизнес-уровня для проверки лимитов
// тарифного плана организации.
package services

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/saas-backend/internal/models"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// ErrNotMember возвращается, когда пользователь не состоит в организации.
var ErrNotMember = errors.New("user is not a member of the organization")

// Лимиты организаций без подписки.
const (
	freeTierMaxUsers    = 1
	freeTierMaxProjects = 1
	freeTierPlanName    = "Free"
)

// SubscriptionRepository читает действующую подписку организации с планом.
type SubscriptionRepository interface {
	GetActiveSubscriptionByOrganization(ctx context.Context, orgUID string) (*models.Subscription, error)
}

// MemberRepository проверяет членство и считает участников.
type MemberRepository interface {
	GetMembership(ctx context.Context, orgUID, userUID string) (*models.OrganizationMember, error)
	CountMembers(ctx context.Context, orgUID string) (int, error)
}

// UsageService отвечает за проверку лимитов плана.
type UsageService struct {
	subs    SubscriptionRepository
	members MemberRepository
}

// NewUsageService создает новый экземпляр UsageService.
func NewUsageService(subs SubscriptionRepository, members MemberRepository) *UsageService {
	return &UsageService{subs: subs, members: members}
}

// CheckUsers проверяет, можно ли добавить ещё одного участника.
func (s *UsageService) CheckUsers(ctx context.Context, orgUID, userUID string) (*models.UsageCheck, error) {
	if _, err := s.members.GetMembership(ctx, orgUID, userUID); err != nil {
		return nil, ErrNotMember
	}
	current, err := s.members.CountMembers(ctx, orgUID)
	if err != nil {
		return nil, err
	}
	limit, planName, err := s.resolveLimit(ctx, orgUID, func(p *models.Plan) *int { return p.MaxUsers }, freeTierMaxUsers)
	if err != nil {
		return nil, err
	}
	return buildCheck(current, limit, planName), nil
}

// CheckProjects проверяет лимит проектов. Сами проекты сервис не хранит,
// поэтому текущее значение всегда ноль.
func (s *UsageService) CheckProjects(ctx context.Context, orgUID, userUID string) (*models.UsageCheck, error) {
	if _, err := s.members.GetMembership(ctx, orgUID, userUID); err != nil {
		return nil, ErrNotMember
	}
	limit, planName, err := s.resolveLimit(ctx, orgUID, func(p *models.Plan) *int { return p.MaxProjects }, freeTierMaxProjects)
	if err != nil {
		return nil, err
	}
	return buildCheck(0, limit, planName), nil
}

// Summary возвращает сводку: подписка, план и заполненность лимитов.
func (s *UsageService) Summary(ctx context.Context, orgUID, userUID string) (*models.UsageSummary, error) {
	if _, err := s.members.GetMembership(ctx, orgUID, userUID); err != nil {
		return nil, ErrNotMember
	}
	memberCount, err := s.members.CountMembers(ctx, orgUID)
	if err != nil {
		return nil, err
	}

	summary := &models.UsageSummary{}
	sub, err := s.subs.GetActiveSubscriptionByOrganization(ctx, orgUID)
	switch {
	case err == nil:
		summary.Subscription = map[string]any{
			"id":                   sub.UID,
			"status":               sub.Status,
			"current_period_end":   sub.CurrentPeriodEnd,
			"cancel_at_period_end": sub.CancelAtPeriodEnd,
		}
		summary.Plan = map[string]any{
			"name":         sub.Plan.Name,
			"price_amount": sub.Plan.PriceAmount,
			"interval":     sub.Plan.Interval,
			"max_users":    sub.Plan.MaxUsers,
			"max_projects": sub.Plan.MaxProjects,
		}
		summary.Usage = map[string]any{
			"users":    buildCheck(memberCount, sub.Plan.MaxUsers, sub.Plan.Name),
			"projects": buildCheck(0, sub.Plan.MaxProjects, sub.Plan.Name),
		}
	case errors.Is(err, repository.ErrNotFound):
		freeUsers := freeTierMaxUsers
		freeProjects := freeTierMaxProjects
		summary.Plan = map[string]any{
			"name":         freeTierPlanName,
			"price_amount": 0,
			"max_users":    freeUsers,
			"max_projects": freeProjects,
		}
		summary.Usage = map[string]any{
			"users":    buildCheck(memberCount, &freeUsers, freeTierPlanName),
			"projects": buildCheck(0, &freeProjects, freeTierPlanName),
		}
	default:
		return nil, err
	}
	return summary, nil
}

// resolveLimit возвращает лимит плана действующей подписки либо лимит
// бесплатного уровня, если подписки нет. Nil-лимит — «без ограничений».
func (s *UsageService) resolveLimit(ctx context.Context, orgUID string,
	pick func(*models.Plan) *int, freeTierLimit int) (*int, string, error) {
	sub, err := s.subs.GetActiveSubscriptionByOrganization(ctx, orgUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			limit := freeTierLimit
			return &limit, freeTierPlanName, nil
		}
		return nil, "", err
	}
	return pick(sub.Plan), sub.Plan.Name, nil
}

func buildCheck(current int, limit *int, planName string) *models.UsageCheck {
	check := &models.UsageCheck{
		Allowed:      true,
		CurrentCount: current,
		Limit:        limit,
		PlanName:     planName,
	}
	if limit != nil {
		remaining := *limit - current
		if remaining < 0 {
			remaining = 0
		}
		check.Remaining = &remaining
		check.Allowed = current < *limit
	}
	return check
}
