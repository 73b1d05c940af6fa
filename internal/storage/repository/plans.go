package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/saas-backend/internal/models"
)

const planColumns = `uid, name, slug, description, billing_product_id, billing_price_id,
	price_amount, currency, interval, max_users, max_projects, features,
	is_active, created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (*models.Plan, error) {
	p := &models.Plan{}
	var description, productID, priceID, features sql.NullString
	var maxUsers, maxProjects sql.NullInt64
	if err := row.Scan(&p.UID, &p.Name, &p.Slug, &description, &productID, &priceID,
		&p.PriceAmount, &p.Currency, &p.Interval, &maxUsers, &maxProjects, &features,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	if productID.Valid {
		p.BillingProductID = &productID.String
	}
	if priceID.Valid {
		p.BillingPriceID = &priceID.String
	}
	if features.Valid {
		p.Features = &features.String
	}
	if maxUsers.Valid {
		v := int(maxUsers.Int64)
		p.MaxUsers = &v
	}
	if maxProjects.Valid {
		v := int(maxProjects.Int64)
		p.MaxProjects = &v
	}
	return p, nil
}

// CreatePlan сохраняет новый тарифный план и возвращает его UID.
func (s *Storage) CreatePlan(ctx context.Context, plan models.Plan) (string, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO plans (name, slug, description, billing_product_id, billing_price_id,
			      price_amount, currency, interval, max_users, max_projects, features, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
			  RETURNING uid`
	var newUID string
	if err := s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Slug, plan.Description, plan.BillingProductID, plan.BillingPriceID,
		plan.PriceAmount, plan.Currency, plan.Interval, plan.MaxUsers, plan.MaxProjects,
		plan.Features).Scan(&newUID); err != nil {
		return "", wrapErr(op, err)
	}
	return newUID, nil
}

// GetPlan возвращает тарифный план по его UID.
func (s *Storage) GetPlan(ctx context.Context, planUID string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM plans WHERE uid = $1`
	p, err := scanPlan(s.DB.QueryRowContext(ctx, query, planUID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// GetPlanBySlug возвращает тарифный план по его slug.
func (s *Storage) GetPlanBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	const op = "storage.GetPlanBySlug"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM plans WHERE slug = $1`
	p, err := scanPlan(s.DB.QueryRowContext(ctx, query, slug))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListPlans возвращает тарифные планы с пагинацией, отсортированные по цене.
func (s *Storage) ListPlans(ctx context.Context, activeOnly bool, limit, offset int) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM plans
			  WHERE ($1 = FALSE OR is_active = TRUE)
			  ORDER BY price_amount
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, activeOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePlan выполняет частичное обновление плана; nil-поля не изменяются.
func (s *Storage) UpdatePlan(ctx context.Context, planUID string, req models.DummyPlanUpdate) error {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE plans
			  SET name = COALESCE($1, name),
			      description = COALESCE($2, description),
			      max_users = COALESCE($3, max_users),
			      max_projects = COALESCE($4, max_projects),
			      features = COALESCE($5, features),
			      is_active = COALESCE($6, is_active),
			      updated_at = NOW()
			  WHERE uid = $7`
	res, err := s.DB.ExecContext(ctx, query,
		req.Name, req.Description, req.MaxUsers, req.MaxProjects, req.Features,
		req.IsActive, planUID)
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

// DeactivatePlan выполняет мягкое удаление тарифного плана.
func (s *Storage) DeactivatePlan(ctx context.Context, planUID string) error {
	const op = "storage.DeactivatePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE plans SET is_active = FALSE, updated_at = NOW() WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, planUID)
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

// CountSubscriptionsByPlan подсчитывает живые подписки на план.
// Используется, чтобы не деактивировать план с действующими подписками.
func (s *Storage) CountSubscriptionsByPlan(ctx context.Context, planUID string) (int, error) {
	const op = "storage.CountSubscriptionsByPlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM subscriptions
			  WHERE plan_uid = $1 AND status IN ($2, $3)`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, planUID,
		models.StatusActive, models.StatusTrialing).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
