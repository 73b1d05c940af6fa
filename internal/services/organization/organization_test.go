package services_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-backend/internal/models"
	services "github.com/magabrotheeeer/saas-backend/internal/services/organization"
)

// Мок для OrganizationRepository
type OrgRepoMock struct {
	mock.Mock
}

func (m *OrgRepoMock) CreateOrganization(ctx context.Context, org models.Organization) (string, error) {
	args := m.Called(ctx, org)
	return args.String(0), args.Error(1)
}

func (m *OrgRepoMock) GetOrganization(ctx context.Context, orgUID string) (*models.Organization, error) {
	args := m.Called(ctx, orgUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *OrgRepoMock) ListOrganizationsByMember(ctx context.Context, userUID string) ([]*models.Organization, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Organization), args.Error(1)
}

func (m *OrgRepoMock) UpdateOrganization(ctx context.Context, orgUID string, name *string, description *string) error {
	args := m.Called(ctx, orgUID, name, description)
	return args.Error(0)
}

func (m *OrgRepoMock) DeactivateOrganization(ctx context.Context, orgUID, ownerUID string) error {
	args := m.Called(ctx, orgUID, ownerUID)
	return args.Error(0)
}

// Мок для MemberRepository
type MemberRepoMock struct {
	mock.Mock
}

func (m *MemberRepoMock) GetMembership(ctx context.Context, orgUID, userUID string) (*models.OrganizationMember, error) {
	args := m.Called(ctx, orgUID, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrganizationMember), args.Error(1)
}

func (m *MemberRepoMock) GetMember(ctx context.Context, orgUID, memberUID string) (*models.OrganizationMember, error) {
	args := m.Called(ctx, orgUID, memberUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrganizationMember), args.Error(1)
}

func (m *MemberRepoMock) ListMembers(ctx context.Context, orgUID string) ([]*models.OrganizationMember, error) {
	args := m.Called(ctx, orgUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OrganizationMember), args.Error(1)
}

func (m *MemberRepoMock) AddMember(ctx context.Context, orgUID, userUID, role string) (string, error) {
	args := m.Called(ctx, orgUID, userUID, role)
	return args.String(0), args.Error(1)
}

func (m *MemberRepoMock) UpdateMemberRole(ctx context.Context, orgUID, memberUID, role string) error {
	args := m.Called(ctx, orgUID, memberUID, role)
	return args.Error(0)
}

func (m *MemberRepoMock) RemoveMember(ctx context.Context, orgUID, memberUID string) error {
	args := m.Called(ctx, orgUID, memberUID)
	return args.Error(0)
}

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для UsageChecker
type UsageCheckerMock struct {
	mock.Mock
}

func (m *UsageCheckerMock) CheckUsers(ctx context.Context, orgUID, userUID string) (*models.UsageCheck, error) {
	args := m.Called(ctx, orgUID, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageCheck), args.Error(1)
}

// Мок для Cache
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newTestService(orgs *OrgRepoMock, members *MemberRepoMock, users *UserRepoMock, cache *CacheMock) *services.OrganizationService {
	usage := new(UsageCheckerMock)
	usage.On("CheckUsers", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.UsageCheck{Allowed: true}, nil).Maybe()
	return newTestServiceWithUsage(orgs, members, users, usage, cache)
}

func newTestServiceWithUsage(orgs *OrgRepoMock, members *MemberRepoMock, users *UserRepoMock,
	usage *UsageCheckerMock, cache *CacheMock) *services.OrganizationService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return services.NewOrganizationService(orgs, members, users, usage, cache, logger)
}

func TestOrganizationService_Create(t *testing.T) {
	orgs := new(OrgRepoMock)
	cache := new(CacheMock)
	svc := newTestService(orgs, new(MemberRepoMock), new(UserRepoMock), cache)

	expected := &models.Organization{UID: "org-1", Name: "Acme Corp", Slug: "acme-corp"}

	orgs.On("CreateOrganization", mock.Anything, mock.MatchedBy(func(org models.Organization) bool {
		return org.Name == "Acme Corp" && org.Slug == "acme-corp" && org.OwnerUID == "user-1"
	})).Return("org-1", nil).Once()
	cache.On("Invalidate", "organizations:user-1").Return(nil).Once()
	orgs.On("GetOrganization", mock.Anything, "org-1").Return(expected, nil).Once()

	got, err := svc.Create(context.Background(), "user-1", "Acme Corp", nil)
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	orgs.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestOrganizationService_GetNotMember(t *testing.T) {
	members := new(MemberRepoMock)
	svc := newTestService(new(OrgRepoMock), members, new(UserRepoMock), new(CacheMock))

	members.On("GetMembership", mock.Anything, "org-1", "stranger").
		Return(nil, errors.New("not found")).Once()

	_, err := svc.Get(context.Background(), "org-1", "stranger")
	assert.ErrorIs(t, err, services.ErrNotMember)
}

func TestOrganizationService_ListUsesCache(t *testing.T) {
	orgs := new(OrgRepoMock)
	cache := new(CacheMock)
	svc := newTestService(orgs, new(MemberRepoMock), new(UserRepoMock), cache)

	cache.On("Get", "organizations:user-1", mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(1).(*[]*models.Organization)
			*out = []*models.Organization{{UID: "org-1", Name: "Cached"}}
		}).Return(true, nil).Once()

	got, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cached", got[0].Name)

	orgs.AssertNotCalled(t, "ListOrganizationsByMember", mock.Anything, mock.Anything)
}

func TestOrganizationService_ListCacheMiss(t *testing.T) {
	orgs := new(OrgRepoMock)
	cache := new(CacheMock)
	svc := newTestService(orgs, new(MemberRepoMock), new(UserRepoMock), cache)

	expected := []*models.Organization{{UID: "org-1"}, {UID: "org-2"}}

	cache.On("Get", "organizations:user-1", mock.Anything).Return(false, nil).Once()
	orgs.On("ListOrganizationsByMember", mock.Anything, "user-1").Return(expected, nil).Once()
	cache.On("Set", "organizations:user-1", expected, 5*time.Minute).Return(nil).Once()

	got, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	orgs.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestOrganizationService_UpdateRequiresAdminRole(t *testing.T) {
	members := new(MemberRepoMock)
	svc := newTestService(new(OrgRepoMock), members, new(UserRepoMock), new(CacheMock))

	members.On("GetMembership", mock.Anything, "org-1", "viewer-1").
		Return(&models.OrganizationMember{UserUID: "viewer-1", Role: models.RoleViewer}, nil).Once()

	name := "New Name"
	_, err := svc.Update(context.Background(), "org-1", "viewer-1", &name, nil)
	assert.ErrorIs(t, err, services.ErrInsufficientRole)
}

func TestOrganizationService_AddMember(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		callerRole string
		setupMocks func(members *MemberRepoMock, users *UserRepoMock, cache *CacheMock)
		wantErr    error
	}{
		{
			name:       "администратор добавляет участника",
			role:       models.RoleMember,
			callerRole: models.RoleAdmin,
			setupMocks: func(members *MemberRepoMock, users *UserRepoMock, cache *CacheMock) {
				users.On("GetUserByEmail", mock.Anything, "new@example.com").
					Return(&models.User{UID: "user-2", Email: "new@example.com"}, nil).Once()
				members.On("AddMember", mock.Anything, "org-1", "user-2", models.RoleMember).
					Return("member-2", nil).Once()
				cache.On("Invalidate", "organizations:user-2").Return(nil).Once()
				members.On("GetMembership", mock.Anything, "org-1", "user-2").
					Return(&models.OrganizationMember{UserUID: "user-2", Role: models.RoleMember}, nil).Once()
			},
		},
		{
			name:       "роль owner запрещена",
			role:       models.RoleOwner,
			callerRole: models.RoleOwner,
			setupMocks: func(_ *MemberRepoMock, _ *UserRepoMock, _ *CacheMock) {},
			wantErr:    services.ErrInvalidRole,
		},
		{
			name:       "обычный участник не может добавлять",
			role:       models.RoleMember,
			callerRole: models.RoleMember,
			setupMocks: func(_ *MemberRepoMock, _ *UserRepoMock, _ *CacheMock) {},
			wantErr:    services.ErrInsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := new(MemberRepoMock)
			users := new(UserRepoMock)
			cache := new(CacheMock)

			if tt.wantErr != services.ErrInvalidRole {
				members.On("GetMembership", mock.Anything, "org-1", "caller-1").
					Return(&models.OrganizationMember{UserUID: "caller-1", Role: tt.callerRole}, nil).Once()
			}
			tt.setupMocks(members, users, cache)

			svc := newTestService(new(OrgRepoMock), members, users, cache)
			got, err := svc.AddMember(context.Background(), "org-1", "caller-1", "new@example.com", tt.role)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "user-2", got.UserUID)
			}
			members.AssertExpectations(t)
		})
	}
}

func TestOrganizationService_AddMemberLimitReached(t *testing.T) {
	members := new(MemberRepoMock)
	users := new(UserRepoMock)
	usage := new(UsageCheckerMock)

	members.On("GetMembership", mock.Anything, "org-1", "owner-1").
		Return(&models.OrganizationMember{UserUID: "owner-1", Role: models.RoleOwner}, nil).Once()
	limit := 1
	remaining := 0
	usage.On("CheckUsers", mock.Anything, "org-1", "owner-1").
		Return(&models.UsageCheck{Allowed: false, CurrentCount: 1, Limit: &limit, Remaining: &remaining}, nil).Once()

	svc := newTestServiceWithUsage(new(OrgRepoMock), members, users, usage, new(CacheMock))
	_, err := svc.AddMember(context.Background(), "org-1", "owner-1", "new@example.com", models.RoleMember)
	assert.ErrorIs(t, err, services.ErrUserLimitReached)

	members.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	usage.AssertExpectations(t)
}

func TestOrganizationService_UpdateMemberRole(t *testing.T) {
	tests := []struct {
		name       string
		callerRole string
		target     *models.OrganizationMember
		wantErr    error
	}{
		{
			name:       "владелец меняет роль участника",
			callerRole: models.RoleOwner,
			target:     &models.OrganizationMember{UID: "member-2", UserUID: "user-2", Role: models.RoleMember},
		},
		{
			name:       "администратор менять роли не может",
			callerRole: models.RoleAdmin,
			wantErr:    services.ErrInsufficientRole,
		},
		{
			name:       "роль владельца менять нельзя",
			callerRole: models.RoleOwner,
			target:     &models.OrganizationMember{UID: "member-owner", UserUID: "another-owner", Role: models.RoleOwner},
			wantErr:    services.ErrCannotRemoveOwner,
		},
		{
			name:       "собственную роль менять нельзя",
			callerRole: models.RoleOwner,
			target:     &models.OrganizationMember{UID: "member-caller", UserUID: "caller-1", Role: models.RoleMember},
			wantErr:    services.ErrCannotChangeOwnRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := new(MemberRepoMock)

			members.On("GetMembership", mock.Anything, "org-1", "caller-1").
				Return(&models.OrganizationMember{UserUID: "caller-1", Role: tt.callerRole}, nil).Once()
			if tt.target != nil {
				// В успешном сценарии участник перечитывается после обновления
				call := members.On("GetMember", mock.Anything, "org-1", tt.target.UID).
					Return(tt.target, nil)
				if tt.wantErr == nil {
					call.Twice()
				} else {
					call.Once()
				}
			}
			memberUID := "member-2"
			if tt.target != nil {
				memberUID = tt.target.UID
			}
			if tt.wantErr == nil {
				members.On("UpdateMemberRole", mock.Anything, "org-1", memberUID, models.RoleViewer).
					Return(nil).Once()
			}

			svc := newTestService(new(OrgRepoMock), members, new(UserRepoMock), new(CacheMock))
			got, err := svc.UpdateMemberRole(context.Background(), "org-1", "caller-1", memberUID, models.RoleViewer)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.target.UserUID, got.UserUID)
			}
			members.AssertExpectations(t)
		})
	}
}

func TestOrganizationService_RemoveMember(t *testing.T) {
	tests := []struct {
		name       string
		callerRole string
		target     *models.OrganizationMember
		wantErr    error
	}{
		{
			name:       "администратор исключает участника",
			callerRole: models.RoleAdmin,
			target:     &models.OrganizationMember{UID: "member-2", UserUID: "user-2", Role: models.RoleMember},
		},
		{
			name:       "участник выходит сам",
			callerRole: models.RoleMember,
			target:     &models.OrganizationMember{UID: "member-caller", UserUID: "caller-1", Role: models.RoleMember},
		},
		{
			name:       "владельца исключить нельзя",
			callerRole: models.RoleAdmin,
			target:     &models.OrganizationMember{UID: "member-owner", UserUID: "owner-1", Role: models.RoleOwner},
			wantErr:    services.ErrCannotRemoveOwner,
		},
		{
			name:       "чужого участника без прав исключить нельзя",
			callerRole: models.RoleViewer,
			target:     &models.OrganizationMember{UID: "member-2", UserUID: "user-2", Role: models.RoleMember},
			wantErr:    services.ErrInsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := new(MemberRepoMock)
			cache := new(CacheMock)

			members.On("GetMembership", mock.Anything, "org-1", "caller-1").
				Return(&models.OrganizationMember{UserUID: "caller-1", Role: tt.callerRole}, nil).Once()
			members.On("GetMember", mock.Anything, "org-1", tt.target.UID).
				Return(tt.target, nil).Once()
			if tt.wantErr == nil {
				members.On("RemoveMember", mock.Anything, "org-1", tt.target.UID).Return(nil).Once()
				cache.On("Invalidate", "organizations:"+tt.target.UserUID).Return(nil).Once()
			}

			svc := newTestService(new(OrgRepoMock), members, new(UserRepoMock), cache)
			err := svc.RemoveMember(context.Background(), "org-1", "caller-1", tt.target.UID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			members.AssertExpectations(t)
		})
	}
}
