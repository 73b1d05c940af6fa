package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/models"
)

const subscriptionColumns = `s.uid, s.organization_uid, s.plan_uid, s.billing_subscription_id,
	s.status, s.current_period_start, s.current_period_end, s.cancel_at_period_end,
	s.canceled_at, s.created_at, s.updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var billingID sql.NullString
	var periodStart, periodEnd, canceledAt sql.NullTime
	if err := row.Scan(&sub.UID, &sub.OrganizationUID, &sub.PlanUID, &billingID,
		&sub.Status, &periodStart, &periodEnd, &sub.CancelAtPeriodEnd,
		&canceledAt, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if billingID.Valid {
		sub.BillingSubscriptionID = &billingID.String
	}
	if periodStart.Valid {
		sub.CurrentPeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	if canceledAt.Valid {
		sub.CanceledAt = &canceledAt.Time
	}
	return sub, nil
}

func scanSubscriptionWithPlan(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	sub := &models.Subscription{}
	plan := &models.Plan{}
	var billingID sql.NullString
	var periodStart, periodEnd, canceledAt sql.NullTime
	var planDescription, productID, priceID, features sql.NullString
	var maxUsers, maxProjects sql.NullInt64
	if err := row.Scan(&sub.UID, &sub.OrganizationUID, &sub.PlanUID, &billingID,
		&sub.Status, &periodStart, &periodEnd, &sub.CancelAtPeriodEnd,
		&canceledAt, &sub.CreatedAt, &sub.UpdatedAt,
		&plan.UID, &plan.Name, &plan.Slug, &planDescription, &productID, &priceID,
		&plan.PriceAmount, &plan.Currency, &plan.Interval, &maxUsers, &maxProjects,
		&features, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
		return nil, err
	}
	if billingID.Valid {
		sub.BillingSubscriptionID = &billingID.String
	}
	if periodStart.Valid {
		sub.CurrentPeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	if canceledAt.Valid {
		sub.CanceledAt = &canceledAt.Time
	}
	if planDescription.Valid {
		plan.Description = &planDescription.String
	}
	if productID.Valid {
		plan.BillingProductID = &productID.String
	}
	if priceID.Valid {
		plan.BillingPriceID = &priceID.String
	}
	if features.Valid {
		plan.Features = &features.String
	}
	if maxUsers.Valid {
		v := int(maxUsers.Int64)
		plan.MaxUsers = &v
	}
	if maxProjects.Valid {
		v := int(maxProjects.Int64)
		plan.MaxProjects = &v
	}
	sub.Plan = plan
	return sub, nil
}

// CreateSubscription сохраняет подписку организации и возвращает её UID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (organization_uid, plan_uid, billing_subscription_id,
			      status, current_period_start, current_period_end, cancel_at_period_end)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid`
	var newUID string
	if err := s.DB.QueryRowContext(ctx, query,
		sub.OrganizationUID, sub.PlanUID, sub.BillingSubscriptionID, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd).Scan(&newUID); err != nil {
		return "", wrapErr(op, err)
	}
	return newUID, nil
}

// GetSubscription возвращает подписку вместе с её тарифным планом.
func (s *Storage) GetSubscription(ctx context.Context, subscriptionUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `,
			      p.uid, p.name, p.slug, p.description, p.billing_product_id, p.billing_price_id,
			      p.price_amount, p.currency, p.interval, p.max_users, p.max_projects, p.features,
			      p.is_active, p.created_at, p.updated_at
			  FROM subscriptions s
			  JOIN plans p ON p.uid = s.plan_uid
			  WHERE s.uid = $1`
	sub, err := scanSubscriptionWithPlan(s.DB.QueryRowContext(ctx, query, subscriptionUID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// GetSubscriptionByBillingID находит подписку по идентификатору платёжной платформы.
// Используется обработчиком вебхуков.
func (s *Storage) GetSubscriptionByBillingID(ctx context.Context, billingID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByBillingID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions s
			  WHERE s.billing_subscription_id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, billingID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// GetActiveSubscriptionByOrganization возвращает действующую подписку организации
// вместе с планом. Подписка считается действующей в статусах active и trialing.
func (s *Storage) GetActiveSubscriptionByOrganization(ctx context.Context, orgUID string) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscriptionByOrganization"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `,
			      p.uid, p.name, p.slug, p.description, p.billing_product_id, p.billing_price_id,
			      p.price_amount, p.currency, p.interval, p.max_users, p.max_projects, p.features,
			      p.is_active, p.created_at, p.updated_at
			  FROM subscriptions s
			  JOIN plans p ON p.uid = s.plan_uid
			  WHERE s.organization_uid = $1 AND s.status IN ($2, $3)
			  ORDER BY s.created_at DESC
			  LIMIT 1`
	sub, err := scanSubscriptionWithPlan(s.DB.QueryRowContext(ctx, query, orgUID,
		models.StatusActive, models.StatusTrialing))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// ListSubscriptionsByOrganization возвращает все подписки организации с планами,
// новые первыми.
func (s *Storage) ListSubscriptionsByOrganization(ctx context.Context, orgUID string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByOrganization"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `,
			      p.uid, p.name, p.slug, p.description, p.billing_product_id, p.billing_price_id,
			      p.price_amount, p.currency, p.interval, p.max_users, p.max_projects, p.features,
			      p.is_active, p.created_at, p.updated_at
			  FROM subscriptions s
			  JOIN plans p ON p.uid = s.plan_uid
			  WHERE s.organization_uid = $1
			  ORDER BY s.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, orgUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscriptionWithPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSubscriptionPlan переводит подписку на другой тарифный план.
func (s *Storage) UpdateSubscriptionPlan(ctx context.Context, subscriptionUID, planUID string) error {
	const op = "storage.UpdateSubscriptionPlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions SET plan_uid = $1, updated_at = NOW() WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, planUID, subscriptionUID)
	if err != nil {
		return wrapErr(op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// SetSubscriptionCancelAtPeriodEnd выставляет или снимает флаг отмены в конце
// оплаченного периода.
func (s *Storage) SetSubscriptionCancelAtPeriodEnd(ctx context.Context, subscriptionUID string, cancel bool) error {
	const op = "storage.SetSubscriptionCancelAtPeriodEnd"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions SET cancel_at_period_end = $1, updated_at = NOW() WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, cancel, subscriptionUID)
	if err != nil {
		return wrapErr(op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// CancelSubscription помечает подписку отменённой немедленно.
func (s *Storage) CancelSubscription(ctx context.Context, subscriptionUID string) error {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1, canceled_at = NOW(), updated_at = NOW()
			  WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, models.StatusCanceled, subscriptionUID)
	if err != nil {
		return wrapErr(op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// SyncSubscriptionStatus обновляет статус и границы периода по данным платёжной
// платформы, подписку ищет по billing_subscription_id.
func (s *Storage) SyncSubscriptionStatus(ctx context.Context, billingID, status string,
	periodStart, periodEnd *time.Time, cancelAtPeriodEnd bool) error {
	const op = "storage.SyncSubscriptionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1,
			      current_period_start = COALESCE($2, current_period_start),
			      current_period_end = COALESCE($3, current_period_end),
			      cancel_at_period_end = $4,
			      canceled_at = CASE WHEN $1 = $5 AND canceled_at IS NULL THEN NOW() ELSE canceled_at END,
			      updated_at = NOW()
			  WHERE billing_subscription_id = $6`
	res, err := s.DB.ExecContext(ctx, query, status, periodStart, periodEnd,
		cancelAtPeriodEnd, models.StatusCanceled, billingID)
	if err != nil {
		return wrapErr(op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListExpiringSubscriptions возвращает уведомления о подписках, период которых
// заканчивается ровно через daysLeft дней: триальные и активные с
// запланированной отменой. Используется планировщиком рассылок.
func (s *Storage) ListExpiringSubscriptions(ctx context.Context, daysLeft int) ([]*models.SubscriptionNotice, error) {
	const op = "storage.ListExpiringSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.uid, u.email, o.name, p.name, s.status, s.current_period_end
			  FROM subscriptions s
			  JOIN organizations o ON o.uid = s.organization_uid
			  JOIN users u ON u.uid = o.owner_uid
			  JOIN plans p ON p.uid = s.plan_uid
			  WHERE s.status IN ($1, $2)
			    AND (s.status = $2 OR s.cancel_at_period_end = TRUE)
			    AND s.current_period_end IS NOT NULL
			    AND s.current_period_end::date = (CURRENT_DATE + $3 * INTERVAL '1 day')::date
			    AND u.is_active = TRUE`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusActive, models.StatusTrialing, daysLeft)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionNotice
	for rows.Next() {
		n := &models.SubscriptionNotice{DaysLeft: daysLeft}
		if err := rows.Scan(&n.SubscriptionUID, &n.OwnerEmail, &n.OrganizationName,
			&n.PlanName, &n.Status, &n.PeriodEnd); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
