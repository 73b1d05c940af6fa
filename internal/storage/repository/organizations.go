package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/saas-backend/internal/models"
)

const organizationColumns = `uid, name, slug, description, owner_uid,
	billing_customer_id, is_active, created_at, updated_at`

func scanOrganization(row interface{ Scan(...any) error }) (*models.Organization, error) {
	o := &models.Organization{}
	var description, billingCustomerID sql.NullString
	if err := row.Scan(&o.UID, &o.Name, &o.Slug, &description, &o.OwnerUID,
		&billingCustomerID, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		o.Description = &description.String
	}
	if billingCustomerID.Valid {
		o.BillingCustomerID = &billingCustomerID.String
	}
	return o, nil
}

// CreateOrganization сохраняет организацию вместе с участником-владельцем
// в одной транзакции и возвращает UID организации.
func (s *Storage) CreateOrganization(ctx context.Context, org models.Organization) (string, error) {
	const op = "storage.CreateOrganization"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var newUID string
	query := `INSERT INTO organizations (name, slug, description, owner_uid, is_active)
			  VALUES ($1, $2, $3, $4, TRUE)
			  RETURNING uid`
	if err := tx.QueryRowContext(ctx, query,
		org.Name, org.Slug, org.Description, org.OwnerUID).Scan(&newUID); err != nil {
		return "", wrapErr(op, err)
	}

	memberQuery := `INSERT INTO organization_members (organization_uid, user_uid, role)
			  VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, memberQuery, newUID, org.OwnerUID, models.RoleOwner); err != nil {
		return "", wrapErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetOrganization возвращает организацию по её UID.
func (s *Storage) GetOrganization(ctx context.Context, orgUID string) (*models.Organization, error) {
	const op = "storage.GetOrganization"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE uid = $1`
	o, err := scanOrganization(s.DB.QueryRowContext(ctx, query, orgUID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return o, nil
}

// ListOrganizationsByMember возвращает активные организации,
// в которых пользователь состоит с любой ролью.
func (s *Storage) ListOrganizationsByMember(ctx context.Context, userUID string) ([]*models.Organization, error) {
	const op = "storage.ListOrganizationsByMember"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT o.uid, o.name, o.slug, o.description, o.owner_uid,
				  o.billing_customer_id, o.is_active, o.created_at, o.updated_at
			  FROM organizations o
			  JOIN organization_members m ON m.organization_uid = o.uid
			  WHERE m.user_uid = $1 AND o.is_active = TRUE
			  ORDER BY o.created_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateOrganization обновляет название и описание организации.
func (s *Storage) UpdateOrganization(ctx context.Context, orgUID string, name *string, description *string) error {
	const op = "storage.UpdateOrganization"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE organizations
			  SET name = COALESCE($1, name),
			      description = COALESCE($2, description),
			      updated_at = NOW()
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, name, description, orgUID)
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

// SetOrganizationBillingCustomer сохраняет ID клиента платёжной платформы.
func (s *Storage) SetOrganizationBillingCustomer(ctx context.Context, orgUID, customerID string) error {
	const op = "storage.SetOrganizationBillingCustomer"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE organizations SET billing_customer_id = $1, updated_at = NOW() WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, customerID, orgUID)
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// DeactivateOrganization выполняет мягкое удаление организации.
// Удалить организацию может только владелец, поэтому ownerUID входит в условие.
func (s *Storage) DeactivateOrganization(ctx context.Context, orgUID, ownerUID string) error {
	const op = "storage.DeactivateOrganization"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE organizations SET is_active = FALSE, updated_at = NOW()
			  WHERE uid = $1 AND owner_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, orgUID, ownerUID)
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
