// Package services содержит логику бизнес-уровня административной панели.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/models"
)

// AdminRepository описывает агрегирующие запросы административной панели.
type AdminRepository interface {
	CountDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	SumMonthlyRevenue(ctx context.Context) (int, int, error)
	ListOrganizationStats(ctx context.Context, limit, offset int) ([]*models.OrganizationStats, error)
	ListExpiringWithinDays(ctx context.Context, days int) ([]*models.ExpiringSubscription, error)
	ListFailedPayments(ctx context.Context) ([]*models.FailedPaymentSubscription, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// UserRepository читает пользователя и его организации для карточки
// пользователя.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListOwnedOrganizations(ctx context.Context, userUID string) ([]*models.Organization, error)
	ListMembershipDetails(ctx context.Context, userUID string) ([]*models.MembershipDetails, error)
}

// Cache кэширует дорогие агрегаты панели.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// AdminService отвечает за метрики и списки административной панели.
type AdminService struct {
	repo  AdminRepository
	users UserRepository
	cache Cache
}

// NewAdminService создает новый экземпляр AdminService.
func NewAdminService(repo AdminRepository, users UserRepository, cache Cache) *AdminService {
	return &AdminService{repo: repo, users: users, cache: cache}
}

const dashboardKey = "admin:dashboard"

// Dashboard возвращает сводную статистику сервиса. Результат кэшируется
// на минуту, панель переживает всплески обновлений страницы.
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var cached models.DashboardStats
	found, err := s.cache.Get(dashboardKey, &cached)
	if err == nil && found {
		return &cached, nil
	}

	stats, err := s.repo.CountDashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := s.Revenue(ctx)
	if err != nil {
		return nil, err
	}
	stats.RevenueMetrics = *metrics

	_ = s.cache.Set(dashboardKey, stats, time.Minute)
	return stats, nil
}

// Revenue считает MRR, ARR и среднюю выручку на активную подписку.
func (s *AdminService) Revenue(ctx context.Context) (*models.RevenueMetrics, error) {
	mrr, activeSubscriptions, err := s.repo.SumMonthlyRevenue(ctx)
	if err != nil {
		return nil, err
	}
	metrics := &models.RevenueMetrics{
		MRR:          mrr,
		MRRFormatted: formatCents(mrr),
		ARR:          mrr * 12,
		ARRFormatted: formatCents(mrr * 12),
	}
	if activeSubscriptions > 0 {
		metrics.AverageRevenuePerCustomer = mrr / activeSubscriptions
	}
	return metrics, nil
}

// Organizations возвращает постраничную статистику организаций.
func (s *AdminService) Organizations(ctx context.Context, limit, offset int) ([]*models.OrganizationStats, error) {
	return s.repo.ListOrganizationStats(ctx, limit, offset)
}

// ExpiringSubscriptions возвращает активные подписки с запланированной
// отменой, истекающие в ближайшие days дней.
func (s *AdminService) ExpiringSubscriptions(ctx context.Context, days int) ([]*models.ExpiringSubscription, error) {
	return s.repo.ListExpiringWithinDays(ctx, days)
}

// FailedPayments возвращает подписки со статусами неуспешной оплаты.
func (s *AdminService) FailedPayments(ctx context.Context) ([]*models.FailedPaymentSubscription, error) {
	return s.repo.ListFailedPayments(ctx)
}

// Users возвращает пользователей с пагинацией.
func (s *AdminService) Users(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.repo.ListUsers(ctx, limit, offset)
}

// UserDetails возвращает карточку пользователя: профиль, собственные
// организации и членства.
func (s *AdminService) UserDetails(ctx context.Context, userUID string) (*models.UserDetails, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	owned, err := s.users.ListOwnedOrganizations(ctx, userUID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.users.ListMembershipDetails(ctx, userUID)
	if err != nil {
		return nil, err
	}
	return &models.UserDetails{
		User:               user,
		OwnedOrganizations: owned,
		Memberships:        memberships,
	}, nil
}

// formatCents переводит центы в строку вида "$12.34".
func formatCents(amount int) string {
	return fmt.Sprintf("$%d.%02d", amount/100, amount%100)
}
