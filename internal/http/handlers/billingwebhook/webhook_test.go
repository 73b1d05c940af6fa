package billingwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/saas-backend/internal/billing"
)

const testSecret = "whsec_test"

// MockService реализует интерфейс billingwebhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) HandleEvent(ctx context.Context, event *billing.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func sign(payload, secret string, at time.Time) string {
	signedPayload := fmt.Sprintf("%d.%s", at.Unix(), payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	payload := `{"id": "evt_1", "type": "customer.subscription.updated", "data": {"object": {"id": "sub_1", "status": "active"}}}`

	tests := []struct {
		name           string
		body           string
		signature      string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "валидное событие",
			body:      payload,
			signature: sign(payload, testSecret, time.Now()),
			setupMock: func(m *MockService) {
				m.On("HandleEvent", mock.Anything, mock.MatchedBy(func(e *billing.Event) bool {
					return e.ID == "evt_1" && e.Type == "customer.subscription.updated"
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"received":"true"`,
		},
		{
			name:           "подпись на чужом секрете",
			body:           payload,
			signature:      sign(payload, "whsec_other", time.Now()),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `invalid signature`,
		},
		{
			name:           "протухшая метка времени",
			body:           payload,
			signature:      sign(payload, testSecret, time.Now().Add(-time.Hour)),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `invalid signature`,
		},
		{
			name:           "без заголовка подписи",
			body:           payload,
			signature:      "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `invalid signature`,
		},
		{
			name:           "подписанное, но нечитаемое событие",
			body:           `not json`,
			signature:      sign(`not json`, testSecret, time.Now()),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid event payload`,
		},
		{
			name:      "ошибка обработки всё равно подтверждается",
			body:      payload,
			signature: sign(payload, testSecret, time.Now()),
			setupMock: func(m *MockService) {
				m.On("HandleEvent", mock.Anything, mock.Anything).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"received":"true"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, testSecret)

			req := httptest.NewRequest(http.MethodPost, "/billing/webhook", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("Billing-Signature", tt.signature)
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
