// Package services содержит логику бизнес-уровня для организаций
// и их участников.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/lib/slug"
	"github.com/magabrotheeeer/saas-backend/internal/models"
)

var (
	// ErrNotMember возвращается, когда пользователь не состоит в организации.
	ErrNotMember = errors.New("user is not a member of the organization")
	// ErrInsufficientRole возвращается при нехватке прав на операцию.
	ErrInsufficientRole = errors.New("insufficient role for this operation")
	// ErrCannotRemoveOwner запрещает удалять владельца из организации.
	ErrCannotRemoveOwner = errors.New("cannot remove the organization owner")
	// ErrInvalidRole возвращается для роли вне допустимого набора.
	ErrInvalidRole = errors.New("invalid member role")
	// ErrUserLimitReached возвращается, когда лимит участников плана исчерпан.
	ErrUserLimitReached = errors.New("plan user limit reached")
	// ErrCannotChangeOwnRole запрещает участнику менять собственную роль.
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
)

// OrganizationRepository описывает контракт для работы с организациями.
type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, org models.Organization) (string, error)
	GetOrganization(ctx context.Context, orgUID string) (*models.Organization, error)
	ListOrganizationsByMember(ctx context.Context, userUID string) ([]*models.Organization, error)
	UpdateOrganization(ctx context.Context, orgUID string, name *string, description *string) error
	DeactivateOrganization(ctx context.Context, orgUID, ownerUID string) error
}

// MemberRepository описывает контракт для работы с участниками организации.
type MemberRepository interface {
	GetMembership(ctx context.Context, orgUID, userUID string) (*models.OrganizationMember, error)
	GetMember(ctx context.Context, orgUID, memberUID string) (*models.OrganizationMember, error)
	ListMembers(ctx context.Context, orgUID string) ([]*models.OrganizationMember, error)
	AddMember(ctx context.Context, orgUID, userUID, role string) (string, error)
	UpdateMemberRole(ctx context.Context, orgUID, memberUID, role string) error
	RemoveMember(ctx context.Context, orgUID, memberUID string) error
}

// UserRepository находит пользователя по email при добавлении участника.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// UsageChecker сообщает, позволяет ли тарифный план добавить ещё одного
// участника.
type UsageChecker interface {
	CheckUsers(ctx context.Context, orgUID, userUID string) (*models.UsageCheck, error)
}

// Cache кэширует членские проверки и списки организаций.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// OrganizationService отвечает за организации и управление участниками.
type OrganizationService struct {
	orgs    OrganizationRepository
	members MemberRepository
	users   UserRepository
	usage   UsageChecker
	cache   Cache
	log     *slog.Logger
}

// NewOrganizationService создает новый экземпляр OrganizationService.
func NewOrganizationService(orgs OrganizationRepository, members MemberRepository,
	users UserRepository, usage UsageChecker, cache Cache, log *slog.Logger) *OrganizationService {
	return &OrganizationService{
		orgs:    orgs,
		members: members,
		users:   users,
		usage:   usage,
		cache:   cache,
		log:     log,
	}
}

// Create создаёт организацию, владелец сразу становится её участником
// с ролью owner.
func (s *OrganizationService) Create(ctx context.Context, ownerUID, name string, description *string) (*models.Organization, error) {
	org := models.Organization{
		Name:        name,
		Slug:        slug.Make(name),
		Description: description,
		OwnerUID:    ownerUID,
	}
	orgUID, err := s.orgs.CreateOrganization(ctx, org)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new organization", slog.String("organization_uid", orgUID))

	if err := s.cache.Invalidate(listKey(ownerUID)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.Any("err", err))
	}
	return s.orgs.GetOrganization(ctx, orgUID)
}

// Get возвращает организацию, если пользователь состоит в ней.
func (s *OrganizationService) Get(ctx context.Context, orgUID, userUID string) (*models.Organization, error) {
	if _, err := s.requireMembership(ctx, orgUID, userUID); err != nil {
		return nil, err
	}
	return s.orgs.GetOrganization(ctx, orgUID)
}

// List возвращает организации пользователя.
func (s *OrganizationService) List(ctx context.Context, userUID string) ([]*models.Organization, error) {
	var cached []*models.Organization
	found, err := s.cache.Get(listKey(userUID), &cached)
	if err != nil {
		s.log.Warn("failed to read cache", slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	orgs, err := s.orgs.ListOrganizationsByMember(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(listKey(userUID), orgs, 5*time.Minute); err != nil {
		s.log.Warn("failed to cache organizations", slog.Any("err", err))
	}
	return orgs, nil
}

// Update меняет имя и/или описание. Доступно владельцу и администраторам
// организации.
func (s *OrganizationService) Update(ctx context.Context, orgUID, userUID string, name, description *string) (*models.Organization, error) {
	membership, err := s.requireMembership(ctx, orgUID, userUID)
	if err != nil {
		return nil, err
	}
	if membership.Role != models.RoleOwner && membership.Role != models.RoleAdmin {
		return nil, ErrInsufficientRole
	}
	if err := s.orgs.UpdateOrganization(ctx, orgUID, name, description); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(listKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.Any("err", err))
	}
	return s.orgs.GetOrganization(ctx, orgUID)
}

// Deactivate выполняет мягкое удаление организации. Доступно только владельцу.
func (s *OrganizationService) Deactivate(ctx context.Context, orgUID, userUID string) error {
	if err := s.orgs.DeactivateOrganization(ctx, orgUID, userUID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(listKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.Any("err", err))
	}
	return nil
}

// ListMembers возвращает участников организации.
func (s *OrganizationService) ListMembers(ctx context.Context, orgUID, userUID string) ([]*models.OrganizationMember, error) {
	if _, err := s.requireMembership(ctx, orgUID, userUID); err != nil {
		return nil, err
	}
	return s.members.ListMembers(ctx, orgUID)
}

// AddMember добавляет пользователя по email. Доступно владельцу
// и администраторам.
func (s *OrganizationService) AddMember(ctx context.Context, orgUID, userUID, email, role string) (*models.OrganizationMember, error) {
	if !models.ValidMemberRole(role) || role == models.RoleOwner {
		return nil, ErrInvalidRole
	}
	membership, err := s.requireMembership(ctx, orgUID, userUID)
	if err != nil {
		return nil, err
	}
	if membership.Role != models.RoleOwner && membership.Role != models.RoleAdmin {
		return nil, ErrInsufficientRole
	}
	check, err := s.usage.CheckUsers(ctx, orgUID, userUID)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return nil, ErrUserLimitReached
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.AddMember(ctx, orgUID, user.UID, role); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(listKey(user.UID)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.Any("err", err))
	}
	return s.members.GetMembership(ctx, orgUID, user.UID)
}

// UpdateMemberRole меняет роль участника. Доступно только владельцу,
// собственную роль менять нельзя, роль владельца не передаётся.
func (s *OrganizationService) UpdateMemberRole(ctx context.Context, orgUID, userUID, memberUID, role string) (*models.OrganizationMember, error) {
	if !models.ValidMemberRole(role) || role == models.RoleOwner {
		return nil, ErrInvalidRole
	}
	membership, err := s.requireMembership(ctx, orgUID, userUID)
	if err != nil {
		return nil, err
	}
	if membership.Role != models.RoleOwner {
		return nil, ErrInsufficientRole
	}
	target, err := s.members.GetMember(ctx, orgUID, memberUID)
	if err != nil {
		return nil, err
	}
	if target.Role == models.RoleOwner {
		return nil, ErrCannotRemoveOwner
	}
	if target.UserUID == userUID {
		return nil, ErrCannotChangeOwnRole
	}
	if err := s.members.UpdateMemberRole(ctx, orgUID, memberUID, role); err != nil {
		return nil, err
	}
	return s.members.GetMember(ctx, orgUID, memberUID)
}

// RemoveMember исключает участника. Участник может выйти сам, владельца
// исключить нельзя.
func (s *OrganizationService) RemoveMember(ctx context.Context, orgUID, userUID, memberUID string) error {
	membership, err := s.requireMembership(ctx, orgUID, userUID)
	if err != nil {
		return err
	}
	target, err := s.members.GetMember(ctx, orgUID, memberUID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}
	selfRemoval := target.UserUID == userUID
	if !selfRemoval && membership.Role != models.RoleOwner && membership.Role != models.RoleAdmin {
		return ErrInsufficientRole
	}
	if err := s.members.RemoveMember(ctx, orgUID, memberUID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(listKey(target.UserUID)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.Any("err", err))
	}
	return nil
}

func (s *OrganizationService) requireMembership(ctx context.Context, orgUID, userUID string) (*models.OrganizationMember, error) {
	membership, err := s.members.GetMembership(ctx, orgUID, userUID)
	if err != nil {
		return nil, ErrNotMember
	}
	return membership, nil
}

func listKey(userUID string) string {
	return fmt.Sprintf("organizations:%s", userUID)
}
