package cancel

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/saas-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-backend/internal/models"
	subservice "github.com/magabrotheeeer/saas-backend/internal/services/subscription"
)

// MockService реализует интерфейс cancel.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Cancel(ctx context.Context, subscriptionUID, userUID string, immediately bool) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionUID, userUID, immediately)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCancelHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "отмена в конце периода без тела запроса",
			body:    "",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, "sub-1", "user-1", false).
					Return(&models.Subscription{UID: "sub-1", Status: models.StatusActive, CancelAtPeriodEnd: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"cancel_at_period_end":true`,
		},
		{
			name:    "немедленная отмена",
			body:    `{"immediately": true}`,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, "sub-1", "user-1", true).
					Return(&models.Subscription{UID: "sub-1", Status: models.StatusCanceled}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"canceled"`,
		},
		{
			name:           "без авторизации",
			body:           "",
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:    "подписка уже отменена",
			body:    "",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, "sub-1", "user-1", false).
					Return(nil, subservice.ErrAlreadyCanceled)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `already canceled`,
		},
		{
			name:    "недостаточно прав",
			body:    "",
			userUID: "viewer-1",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, "sub-1", "viewer-1", false).
					Return(nil, subservice.ErrInsufficientRole)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `insufficient permissions`,
		},
		{
			name:           "некорректное тело запроса",
			body:           `{immediately`,
			userUID:        "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodDelete, "/subscriptions/sub-1", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "sub-1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
