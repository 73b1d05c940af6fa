package create

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/saas-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-backend/internal/models"
	subservice "github.com/magabrotheeeer/saas-backend/internal/services/subscription"
)

const (
	testOrgUID  = "6f1b0a0e-9a60-4a3e-8f6f-2d1c4a5b6c7d"
	testPlanUID = "3c9d8e7f-6a5b-4c3d-2e1f-0a9b8c7d6e5f"
)

// MockService реализует интерфейс create.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, userUID string, req models.DummySubscription) (*models.Subscription, error) {
	args := m.Called(ctx, userUID, req)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	validBody := `{"organization_id": "` + testOrgUID + `", "plan_id": "` + testPlanUID + `"}`

	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешное оформление подписки",
			body:    validBody,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "user-1", models.DummySubscription{
					OrganizationUID: testOrgUID,
					PlanUID:         testPlanUID,
				}).Return(&models.Subscription{UID: "sub-1", Status: models.StatusActive}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"status":"active"`,
		},
		{
			name:           "без авторизации",
			body:           validBody,
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:           "plan_id не UUID",
			body:           `{"organization_id": "` + testOrgUID + `", "plan_id": "42"}`,
			userUID:        "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:    "недостаточно прав",
			body:    validBody,
			userUID: "viewer-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "viewer-1", mock.Anything).
					Return(nil, subservice.ErrInsufficientRole)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `insufficient permissions`,
		},
		{
			name:    "уже есть активная подписка",
			body:    validBody,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "user-1", mock.Anything).
					Return(nil, subservice.ErrAlreadySubscribed)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `already has an active subscription`,
		},
		{
			name:    "план неактивен",
			body:    validBody,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "user-1", mock.Anything).
					Return(nil, subservice.ErrPlanInactive)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `plan is not active`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(tt.body))
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
