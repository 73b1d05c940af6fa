package billing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateCustomer(t *testing.T) {
	var gotAuth string
	var gotBody createCustomerRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/customers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cus_1", "email": "owner@example.com", "name": "Acme Corp"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	customer, err := client.CreateCustomer(context.Background(), "owner@example.com", "Acme Corp",
		map[string]string{"organization_id": "org-1"})
	require.NoError(t, err)

	assert.Equal(t, "cus_1", customer.ID)
	assert.Equal(t, "owner@example.com", gotBody.Email)
	assert.Equal(t, "org-1", gotBody.Metadata["organization_id"])

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test_123:"))
	assert.Equal(t, wantAuth, gotAuth)
}

func TestClient_CreatePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices", r.URL.Path)

		var body createPriceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "prod_1", body.ProductID)
		assert.Equal(t, 2900, body.UnitAmount)
		assert.Equal(t, "month", body.Recurring.Interval)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "price_1", "product": "prod_1", "unit_amount": 2900, "currency": "usd", "recurring": {"interval": "month"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	price, err := client.CreatePrice(context.Background(), "prod_1", 2900, "usd", "month")
	require.NoError(t, err)
	assert.Equal(t, "price_1", price.ID)
	assert.Equal(t, 2900, price.UnitAmount)
}

func TestClient_CreateSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body createSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cus_1", body.CustomerID)
		assert.Equal(t, "price_1", body.PriceID)
		assert.Equal(t, 14, body.TrialPeriodDays)

		_, _ = w.Write([]byte(`{"id": "sub_1", "customer": "cus_1", "status": "trialing", "current_period_start": 1700000000, "current_period_end": 1702592000}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	sub, err := client.CreateSubscription(context.Background(), "cus_1", "price_1", 14)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "trialing", sub.Status)
	assert.Equal(t, int64(1700000000), sub.CurrentPeriodStart)
}

func TestClient_UpdateSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/sub_1", r.URL.Path)

		var body updateSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Nil(t, body.PriceID)
		require.NotNil(t, body.CancelAtPeriodEnd)
		assert.True(t, *body.CancelAtPeriodEnd)

		_, _ = w.Write([]byte(`{"id": "sub_1", "customer": "cus_1", "status": "active", "cancel_at_period_end": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	cancel := true
	sub, err := client.UpdateSubscription(context.Background(), "sub_1", nil, &cancel)
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd)
}

func TestClient_CancelSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		assert.Equal(t, "/subscriptions/sub_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "sub_1", "status": "canceled"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	require.NoError(t, client.CancelSubscription(context.Background(), "sub_1"))
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.GetSubscription(context.Background(), "sub_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
