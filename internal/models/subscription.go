package models

import "time"

// Статусы подписки, совпадающие со статусами платёжной платформы.
const (
	StatusActive            = "active"
	StatusTrialing          = "trialing"
	StatusPastDue           = "past_due"
	StatusCanceled          = "canceled"
	StatusIncomplete        = "incomplete"
	StatusIncompleteExpired = "incomplete_expired"
	StatusUnpaid            = "unpaid"
	StatusPaused            = "paused"
)

// Subscription представляет подписку организации на тарифный план.
// Периоды и статус синхронизируются с платёжной платформой через вебхуки.
type Subscription struct {
	UID                   string     `json:"id"`
	OrganizationUID       string     `json:"organization_id"`
	PlanUID               string     `json:"plan_id"`
	BillingSubscriptionID *string    `json:"billing_subscription_id"`
	Status                string     `json:"status"`
	CurrentPeriodStart    *time.Time `json:"current_period_start"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd     bool       `json:"cancel_at_period_end"`
	CanceledAt            *time.Time `json:"canceled_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	Plan *Plan `json:"plan,omitempty"` // Заполняется при чтении вместе с планом
}

// DummySubscription используется для приёма данных новой подписки из JSON-запроса.
type DummySubscription struct {
	OrganizationUID string `json:"organization_id" validate:"required,uuid"`
	PlanUID         string `json:"plan_id" validate:"required,uuid"`
	TrialPeriodDays int    `json:"trial_period_days,omitempty" validate:"omitempty,gte=0,lte=90"`
}

// DummySubscriptionUpdate — смена плана и/или флага отмены в конце периода.
type DummySubscriptionUpdate struct {
	PlanUID           *string `json:"plan_id,omitempty" validate:"omitempty,uuid"`
	CancelAtPeriodEnd *bool   `json:"cancel_at_period_end,omitempty"`
}

// DummySubscriptionCancel — параметры отмены подписки. По умолчанию подписка
// отменяется в конце оплаченного периода.
type DummySubscriptionCancel struct {
	Immediately bool `json:"immediately,omitempty"`
}

// SubscriptionNotice — сообщение для очереди уведомлений об окончании
// пробного периода или оплаченного периода подписки.
type SubscriptionNotice struct {
	SubscriptionUID  string    `json:"subscription_id"`
	OrganizationName string    `json:"organization_name"`
	OwnerEmail       string    `json:"owner_email"`
	PlanName         string    `json:"plan_name"`
	Status           string    `json:"status"`
	PeriodEnd        time.Time `json:"period_end"`
	DaysLeft         int       `json:"days_left"`
}
