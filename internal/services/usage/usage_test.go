package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-backend/internal/models"
	services "github.com/magabrotheeeer/saas-backend/internal/services/usage"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// Мок для SubscriptionRepository
type SubRepoMock struct {
	mock.Mock
}

func (m *SubRepoMock) GetActiveSubscriptionByOrganization(ctx context.Context, orgUID string) (*models.Subscription, error) {
	args := m.Called(ctx, orgUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
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

func (m *MemberRepoMock) CountMembers(ctx context.Context, orgUID string) (int, error) {
	args := m.Called(ctx, orgUID)
	return args.Int(0), args.Error(1)
}

func member(userUID string) *models.OrganizationMember {
	return &models.OrganizationMember{UserUID: userUID, Role: models.RoleMember}
}

func activeSubWithPlan(maxUsers, maxProjects *int) *models.Subscription {
	return &models.Subscription{
		UID:             "sub-1",
		OrganizationUID: "org-1",
		Status:          models.StatusActive,
		Plan: &models.Plan{
			UID:         "plan-1",
			Name:        "Pro",
			PriceAmount: 2900,
			Interval:    models.IntervalMonth,
			MaxUsers:    maxUsers,
			MaxProjects: maxProjects,
		},
	}
}

func intPtr(v int) *int { return &v }

func TestUsageService_CheckUsers(t *testing.T) {
	tests := []struct {
		name          string
		memberCount   int
		sub           *models.Subscription
		subErr        error
		wantAllowed   bool
		wantLimit     *int
		wantRemaining *int
		wantPlanName  string
	}{
		{
			name:          "план с лимитом, место есть",
			memberCount:   3,
			sub:           activeSubWithPlan(intPtr(10), intPtr(5)),
			wantAllowed:   true,
			wantLimit:     intPtr(10),
			wantRemaining: intPtr(7),
			wantPlanName:  "Pro",
		},
		{
			name:          "лимит исчерпан",
			memberCount:   10,
			sub:           activeSubWithPlan(intPtr(10), intPtr(5)),
			wantAllowed:   false,
			wantLimit:     intPtr(10),
			wantRemaining: intPtr(0),
			wantPlanName:  "Pro",
		},
		{
			name:         "nil-лимит означает отсутствие ограничений",
			memberCount:  500,
			sub:          activeSubWithPlan(nil, nil),
			wantAllowed:  true,
			wantLimit:    nil,
			wantPlanName: "Pro",
		},
		{
			name:          "без подписки действует бесплатный уровень",
			memberCount:   1,
			subErr:        repository.ErrNotFound,
			wantAllowed:   false,
			wantLimit:     intPtr(1),
			wantRemaining: intPtr(0),
			wantPlanName:  "Free",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := new(SubRepoMock)
			members := new(MemberRepoMock)
			svc := services.NewUsageService(subs, members)

			members.On("GetMembership", mock.Anything, "org-1", "user-1").
				Return(member("user-1"), nil).Once()
			members.On("CountMembers", mock.Anything, "org-1").
				Return(tt.memberCount, nil).Once()
			if tt.subErr != nil {
				subs.On("GetActiveSubscriptionByOrganization", mock.Anything, "org-1").
					Return(nil, tt.subErr).Once()
			} else {
				subs.On("GetActiveSubscriptionByOrganization", mock.Anything, "org-1").
					Return(tt.sub, nil).Once()
			}

			check, err := svc.CheckUsers(context.Background(), "org-1", "user-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, check.Allowed)
			assert.Equal(t, tt.wantLimit, check.Limit)
			assert.Equal(t, tt.wantRemaining, check.Remaining)
			assert.Equal(t, tt.wantPlanName, check.PlanName)
			assert.Equal(t, tt.memberCount, check.CurrentCount)
		})
	}
}

func TestUsageService_CheckUsersNotMember(t *testing.T) {
	subs := new(SubRepoMock)
	members := new(MemberRepoMock)
	svc := services.NewUsageService(subs, members)

	members.On("GetMembership", mock.Anything, "org-1", "stranger").
		Return(nil, errors.New("not found")).Once()

	_, err := svc.CheckUsers(context.Background(), "org-1", "stranger")
	assert.ErrorIs(t, err, services.ErrNotMember)
}

func TestUsageService_CheckUsersRemainingNeverNegative(t *testing.T) {
	subs := new(SubRepoMock)
	members := new(MemberRepoMock)
	svc := services.NewUsageService(subs, members)

	members.On("GetMembership", mock.Anything, "org-1", "user-1").
		Return(member("user-1"), nil).Once()
	members.On("CountMembers", mock.Anything, "org-1").Return(7, nil).Once()
	subs.On("GetActiveSubscriptionByOrganization", mock.Anything, "org-1").
		Return(activeSubWithPlan(intPtr(5), nil), nil).Once()

	check, err := svc.CheckUsers(context.Background(), "org-1", "user-1")
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	require.NotNil(t, check.Remaining)
	assert.Equal(t, 0, *check.Remaining)
}

func TestUsageService_CheckProjectsCountsNothing(t *testing.T) {
	subs := new(SubRepoMock)
	members := new(MemberRepoMock)
	svc := services.NewUsageService(subs, members)

	members.On("GetMembership", mock.Anything, "org-1", "user-1").
		Return(member("user-1"), nil).Once()
	subs.On("GetActiveSubscriptionByOrganization", mock.Anything, "org-1").
		Return(activeSubWithPlan(intPtr(10), intPtr(5)), nil).Once()

	check, err := svc.CheckProjects(context.Background(), "org-1", "user-1")
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, 0, check.CurrentCount)
	require.NotNil(t, check.Remaining)
	assert.Equal(t, 5, *check.Remaining)
}

func TestUsageService_SummaryWithSubscription(t *testing.T) {
	subs := new(SubRepoMock)
	members := new(MemberRepoMock)
	svc := services.NewUsageService(subs, members)

	members.On("GetMembership", mock.Anything, "org-1", "user-1").
		Return(member("user-1"), nil).Once()
	members.On("CountMembers", mock.Anything, "org-1").Return(3, nil).Once()
	subs.On("GetActiveSubscriptionByOrganization", mock.Anything, "org-1").
		Return(activeSubWithPlan(intPtr(10), intPtr(5)), nil).Once()

	summary, err := svc.Summary(context.Background(), "org-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", summary.Subscription["id"])
	assert.Equal(t, "Pro", summary.Plan["name"])

	users := summary.Usage["users"].(*models.UsageCheck)
	assert.Equal(t, 3, users.CurrentCount)
	assert.True(t, users.Allowed)
}

func TestUsageService_SummaryWithoutSubscription(t *testing.T) {
	subs := new(SubRepoMock)
	members := new(MemberRepoMock)
	svc := services.NewUsageService(subs, members)

	members.On("GetMembership", mock.Anything, "org-1", "user-1").
		Return(member("user-1"), nil).Once()
	members.On("CountMembers", mock.Anything, "org-1").Return(1, nil).Once()
	subs.On("GetActiveSubscriptionByOrganization", mock.Anything, "org-1").
		Return(nil, repository.ErrNotFound).Once()

	summary, err := svc.Summary(context.Background(), "org-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, summary.Subscription)
	assert.Equal(t, "Free", summary.Plan["name"])

	users := summary.Usage["users"].(*models.UsageCheck)
	assert.False(t, users.Allowed)
}
