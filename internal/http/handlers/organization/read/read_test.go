package read

import (
	"context"
	"errors"
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
	orgservice "github.com/magabrotheeeer/saas-backend/internal/services/organization"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, orgUID, userUID string) (*models.Organization, error) {
	args := m.Called(ctx, orgUID, userUID)
	if res := args.Get(0); res != nil {
		return res.(*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		orgUID         string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешное чтение организации",
			orgUID:  "org-1",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "org-1", "user-1").
					Return(&models.Organization{UID: "org-1", Name: "Acme", Slug: "acme"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"name":"Acme"`,
		},
		{
			name:           "без авторизации",
			orgUID:         "org-1",
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:    "пользователь не состоит в организации",
			orgUID:  "org-1",
			userUID: "stranger",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "org-1", "stranger").
					Return(nil, orgservice.ErrNotMember)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `not a member of this organization`,
		},
		{
			name:    "организация не найдена",
			orgUID:  "org-missing",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "org-missing", "user-1").
					Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `organization not found`,
		},
		{
			name:    "ошибка сервиса",
			orgUID:  "org-1",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "org-1", "user-1").
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not read organization`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/organizations/"+tt.orgUID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.orgUID)
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
