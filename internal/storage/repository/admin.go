package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/saas-backend/internal/models"
)

// CountDashboardStats собирает сводные счётчики по сервису одним запросом.
// Метрики выручки заполняются отдельно сервисным слоем.
func (s *Storage) CountDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "storage.CountDashboardStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      (SELECT COUNT(*) FROM users),
			      (SELECT COUNT(*) FROM users WHERE is_active = TRUE),
			      (SELECT COUNT(*) FROM organizations),
			      (SELECT COUNT(*) FROM organizations WHERE is_active = TRUE),
			      (SELECT COUNT(*) FROM subscriptions),
			      (SELECT COUNT(*) FROM subscriptions WHERE status = $1),
			      (SELECT COUNT(*) FROM subscriptions WHERE status = $2),
			      (SELECT COUNT(*) FROM users WHERE created_at >= NOW() - INTERVAL '7 days'),
			      (SELECT COUNT(*) FROM subscriptions WHERE created_at >= NOW() - INTERVAL '7 days')`
	stats := &models.DashboardStats{}
	if err := s.DB.QueryRowContext(ctx, query, models.StatusActive, models.StatusTrialing).Scan(
		&stats.TotalUsers, &stats.ActiveUsers,
		&stats.TotalOrganizations, &stats.ActiveOrganizations,
		&stats.TotalSubscriptions, &stats.ActiveSubscriptions, &stats.TrialingSubscriptions,
		&stats.RecentSignups, &stats.RecentSubscriptions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// SumMonthlyRevenue считает MRR в центах по активным подпискам: цена годовых
// планов делится на 12. Вторым значением возвращает число активных подписок.
func (s *Storage) SumMonthlyRevenue(ctx context.Context) (int, int, error) {
	const op = "storage.SumMonthlyRevenue"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      COALESCE(SUM(CASE WHEN p.interval = $1 THEN p.price_amount
			                        ELSE p.price_amount / 12 END), 0),
			      (SELECT COUNT(*) FROM subscriptions WHERE status = $2)
			  FROM subscriptions s
			  JOIN plans p ON p.uid = s.plan_uid
			  WHERE s.status = $2 AND p.price_amount > 0`
	var mrr, active int
	if err := s.DB.QueryRowContext(ctx, query, models.IntervalMonth,
		models.StatusActive).Scan(&mrr, &active); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return mrr, active, nil
}

// ListOrganizationStats возвращает постраничную статистику по организациям:
// владелец, число участников, статус подписки и вклад в MRR.
func (s *Storage) ListOrganizationStats(ctx context.Context, limit, offset int) ([]*models.OrganizationStats, error) {
	const op = "storage.ListOrganizationStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT o.uid, o.name, u.email, o.created_at,
			      (SELECT COUNT(*) FROM organization_members m WHERE m.organization_uid = o.uid),
			      COALESCE(s.status, 'none'),
			      p.name,
			      COALESCE(CASE WHEN s.status = $1 AND p.interval = $2 THEN p.price_amount
			                    WHEN s.status = $1 THEN p.price_amount / 12
			                    ELSE 0 END, 0)
			  FROM organizations o
			  JOIN users u ON u.uid = o.owner_uid
			  LEFT JOIN LATERAL (
			      SELECT * FROM subscriptions
			      WHERE organization_uid = o.uid
			      ORDER BY created_at DESC
			      LIMIT 1
			  ) s ON TRUE
			  LEFT JOIN plans p ON p.uid = s.plan_uid
			  WHERE o.is_active = TRUE
			  ORDER BY o.created_at DESC
			  LIMIT $3 OFFSET $4`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusActive, models.IntervalMonth, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.OrganizationStats
	for rows.Next() {
		st := &models.OrganizationStats{}
		var planName sql.NullString
		if err := rows.Scan(&st.UID, &st.Name, &st.OwnerEmail, &st.CreatedAt,
			&st.MemberCount, &st.SubscriptionStatus, &planName, &st.MRR); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if planName.Valid {
			st.PlanName = &planName.String
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListExpiringWithinDays возвращает активные подписки с запланированной
// отменой, период которых заканчивается в ближайшие days дней.
func (s *Storage) ListExpiringWithinDays(ctx context.Context, days int) ([]*models.ExpiringSubscription, error) {
	const op = "storage.ListExpiringWithinDays"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.uid, o.name, u.email, p.name, s.current_period_end,
			      GREATEST(0, EXTRACT(DAY FROM s.current_period_end - NOW())::int)
			  FROM subscriptions s
			  JOIN organizations o ON o.uid = s.organization_uid
			  JOIN users u ON u.uid = o.owner_uid
			  JOIN plans p ON p.uid = s.plan_uid
			  WHERE s.status = $1
			    AND s.cancel_at_period_end = TRUE
			    AND s.current_period_end IS NOT NULL
			    AND s.current_period_end BETWEEN NOW() AND NOW() + $2 * INTERVAL '1 day'
			  ORDER BY s.current_period_end`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusActive, days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiringSubscription
	for rows.Next() {
		e := &models.ExpiringSubscription{}
		if err := rows.Scan(&e.SubscriptionUID, &e.OrganizationName, &e.OwnerEmail,
			&e.PlanName, &e.ExpiresAt, &e.DaysRemaining); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListFailedPayments возвращает подписки в статусах неуспешной оплаты.
func (s *Storage) ListFailedPayments(ctx context.Context) ([]*models.FailedPaymentSubscription, error) {
	const op = "storage.ListFailedPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.uid, o.name, u.email, p.name, s.status, s.updated_at
			  FROM subscriptions s
			  JOIN organizations o ON o.uid = s.organization_uid
			  JOIN users u ON u.uid = o.owner_uid
			  JOIN plans p ON p.uid = s.plan_uid
			  WHERE s.status IN ($1, $2)
			  ORDER BY s.updated_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusPastDue, models.StatusUnpaid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.FailedPaymentSubscription
	for rows.Next() {
		f := &models.FailedPaymentSubscription{}
		if err := rows.Scan(&f.SubscriptionUID, &f.OrganizationName, &f.OwnerEmail,
			&f.PlanName, &f.Status, &f.LastUpdated); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUsers возвращает пользователей с пагинацией для административной панели.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
