package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/saas-backend/internal/models"
)

// GetMembership возвращает участие пользователя в организации
// или ErrNotFound, если пользователь в ней не состоит.
func (s *Storage) GetMembership(ctx context.Context, orgUID, userUID string) (*models.OrganizationMember, error) {
	const op = "storage.GetMembership"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, organization_uid, user_uid, role, joined_at
			  FROM organization_members
			  WHERE organization_uid = $1 AND user_uid = $2`
	m := &models.OrganizationMember{}
	row := s.DB.QueryRowContext(ctx, query, orgUID, userUID)
	if err := row.Scan(&m.UID, &m.OrganizationUID, &m.UserUID, &m.Role, &m.JoinedAt); err != nil {
		return nil, wrapErr(op, err)
	}
	return m, nil
}

// GetMember возвращает участника организации по UID записи участия.
func (s *Storage) GetMember(ctx context.Context, orgUID, memberUID string) (*models.OrganizationMember, error) {
	const op = "storage.GetMember"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, organization_uid, user_uid, role, joined_at
			  FROM organization_members
			  WHERE uid = $1 AND organization_uid = $2`
	m := &models.OrganizationMember{}
	row := s.DB.QueryRowContext(ctx, query, memberUID, orgUID)
	if err := row.Scan(&m.UID, &m.OrganizationUID, &m.UserUID, &m.Role, &m.JoinedAt); err != nil {
		return nil, wrapErr(op, err)
	}
	return m, nil
}

// ListMembers возвращает всех участников организации.
func (s *Storage) ListMembers(ctx context.Context, orgUID string) ([]*models.OrganizationMember, error) {
	const op = "storage.ListMembers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, organization_uid, user_uid, role, joined_at
			  FROM organization_members
			  WHERE organization_uid = $1
			  ORDER BY joined_at`
	rows, err := s.DB.QueryContext(ctx, query, orgUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.OrganizationMember
	for rows.Next() {
		var m models.OrganizationMember
		if err := rows.Scan(&m.UID, &m.OrganizationUID, &m.UserUID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountMembers подсчитывает участников организации для проверки лимитов.
func (s *Storage) CountMembers(ctx context.Context, orgUID string) (int, error) {
	const op = "storage.CountMembers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM organization_members WHERE organization_uid = $1`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, orgUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// AddMember добавляет участника в организацию и возвращает UID записи участия.
func (s *Storage) AddMember(ctx context.Context, orgUID, userUID, role string) (string, error) {
	const op = "storage.AddMember"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO organization_members (organization_uid, user_uid, role)
			  VALUES ($1, $2, $3)
			  RETURNING uid`
	var newUID string
	if err := s.DB.QueryRowContext(ctx, query, orgUID, userUID, role).Scan(&newUID); err != nil {
		return "", wrapErr(op, err)
	}
	return newUID, nil
}

// UpdateMemberRole изменяет роль участника организации.
func (s *Storage) UpdateMemberRole(ctx context.Context, orgUID, memberUID, role string) error {
	const op = "storage.UpdateMemberRole"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE organization_members SET role = $1
			  WHERE uid = $2 AND organization_uid = $3`
	res, err := s.DB.ExecContext(ctx, query, role, memberUID, orgUID)
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

// RemoveMember удаляет участника из организации.
func (s *Storage) RemoveMember(ctx context.Context, orgUID, memberUID string) error {
	const op = "storage.RemoveMember"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM organization_members WHERE uid = $1 AND organization_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, memberUID, orgUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
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

// ListMembershipDetails возвращает участия пользователя вместе с названиями организаций.
func (s *Storage) ListMembershipDetails(ctx context.Context, userUID string) ([]*models.MembershipDetails, error) {
	const op = "storage.ListMembershipDetails"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT o.name, m.role, m.joined_at
			  FROM organization_members m
			  JOIN organizations o ON o.uid = m.organization_uid
			  WHERE m.user_uid = $1
			  ORDER BY m.joined_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.MembershipDetails
	for rows.Next() {
		var d models.MembershipDetails
		if err := rows.Scan(&d.OrganizationName, &d.Role, &d.JoinedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListOwnedOrganizations возвращает организации, которыми владеет пользователь.
func (s *Storage) ListOwnedOrganizations(ctx context.Context, userUID string) ([]*models.Organization, error) {
	const op = "storage.ListOwnedOrganizations"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + organizationColumns + ` FROM organizations
			  WHERE owner_uid = $1
			  ORDER BY created_at`
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
