package billing

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/models"
)

// Client — REST-клиент платёжной платформы. Авторизация — секретный ключ
// через Basic auth, тело запросов и ответов — JSON.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiURL, secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.secretKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("unexpected status: " + resp.Status)
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// CreateCustomer регистрирует организацию как клиента платёжной платформы.
func (c *Client) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*Customer, error) {
	req, err := c.newRequest(ctx, "POST", "/customers", createCustomerRequest{
		Email:    email,
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		return nil, err
	}
	var customer Customer
	if err := c.do(req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateProduct создаёт продукт для нового тарифного плана.
func (c *Client) CreateProduct(ctx context.Context, name, description string) (*Product, error) {
	req, err := c.newRequest(ctx, "POST", "/products", createProductRequest{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	var product Product
	if err := c.do(req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreatePrice создаёт повторяющуюся цену продукта.
func (c *Client) CreatePrice(ctx context.Context, productID string, unitAmount int, currency, interval string) (*Price, error) {
	body := createPriceRequest{
		ProductID:  productID,
		UnitAmount: unitAmount,
		Currency:   currency,
	}
	body.Recurring.Interval = interval
	req, err := c.newRequest(ctx, "POST", "/prices", body)
	if err != nil {
		return nil, err
	}
	var price Price
	if err := c.do(req, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// CreateSubscription оформляет подписку клиента на цену, при необходимости
// с пробным периодом.
func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string, trialPeriodDays int) (*Subscription, error) {
	req, err := c.newRequest(ctx, "POST", "/subscriptions", createSubscriptionRequest{
		CustomerID:      customerID,
		PriceID:         priceID,
		TrialPeriodDays: trialPeriodDays,
	})
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscription запрашивает текущее состояние подписки.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	req, err := c.newRequest(ctx, "GET", "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscription меняет цену подписки и/или флаг отмены в конце периода.
func (c *Client) UpdateSubscription(ctx context.Context, subscriptionID string, priceID *string, cancelAtPeriodEnd *bool) (*Subscription, error) {
	req, err := c.newRequest(ctx, "POST", "/subscriptions/"+subscriptionID, updateSubscriptionRequest{
		PriceID:           priceID,
		CancelAtPeriodEnd: cancelAtPeriodEnd,
	})
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription отменяет подписку немедленно.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	req, err := c.newRequest(ctx, "DELETE", "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// MapStatus приводит статус платёжной платформы к статусу подписки.
// Неизвестные статусы трактуются как incomplete.
func MapStatus(providerStatus string) string {
	switch providerStatus {
	case models.StatusActive, models.StatusTrialing, models.StatusPastDue,
		models.StatusCanceled, models.StatusIncomplete, models.StatusIncompleteExpired,
		models.StatusUnpaid, models.StatusPaused:
		return providerStatus
	default:
		return models.StatusIncomplete
	}
}
