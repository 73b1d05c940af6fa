package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Типы событий платёжной платформы, которые обрабатывает сервис.
const (
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventSubscriptionTrialWillEnd = "customer.subscription.trial_will_end"
	EventInvoicePaid              = "invoice.paid"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
)

// Допустимое расхождение метки времени в подписи вебхука.
const signatureTolerance = 5 * time.Minute

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
)

// Event — событие вебхука платёжной платформы. Data хранится сырым JSON
// и декодируется по типу события.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// VerifySignature проверяет заголовок подписи вида "t=<unix>,v1=<hex>".
// Подпись — HMAC-SHA256 от строки "<t>.<body>" на секрете вебхука,
// сравнение выполняется за постоянное время.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	const op = "billing.VerifySignature"

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	diff := now.Sub(time.Unix(timestamp, 0))
	if diff > signatureTolerance || diff < -signatureTolerance {
		return fmt.Errorf("%s: %w", op, ErrStaleTimestamp)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(expected), []byte(signature)) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
}

// ParseEvent декодирует тело вебхука в событие.
func ParseEvent(payload []byte) (*Event, error) {
	const op = "billing.ParseEvent"
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%s: missing event type", op)
	}
	return &event, nil
}

// SubscriptionFromEvent декодирует объект подписки из события.
func SubscriptionFromEvent(event *Event) (*Subscription, error) {
	const op = "billing.SubscriptionFromEvent"
	var sub Subscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// InvoiceFromEvent декодирует объект счёта из события.
func InvoiceFromEvent(event *Event) (*Invoice, error) {
	const op = "billing.InvoiceFromEvent"
	var invoice Invoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &invoice, nil
}
