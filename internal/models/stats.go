package models

import "time"

// UsageCheck — результат проверки лимита по плану организации.
// Limit со значением nil означает «без ограничений».
type UsageCheck struct {
	Allowed      bool   `json:"allowed"`
	CurrentCount int    `json:"current_count"`
	Limit        *int   `json:"limit"`
	Remaining    *int   `json:"remaining"`
	PlanName     string `json:"plan_name"`
}

// UsageSummary — сводка по подписке, плану и использованию лимитов организации.
type UsageSummary struct {
	Subscription map[string]any `json:"subscription"`
	Plan         map[string]any `json:"plan"`
	Usage        map[string]any `json:"usage"`
}

// RevenueMetrics — метрики выручки для административной панели.
// MRR и ARR хранятся в центах.
type RevenueMetrics struct {
	MRR                       int    `json:"mrr"`
	MRRFormatted              string `json:"mrr_formatted"`
	ARR                       int    `json:"arr"`
	ARRFormatted              string `json:"arr_formatted"`
	AverageRevenuePerCustomer int    `json:"average_revenue_per_customer"`
}

// DashboardStats — сводная статистика сервиса для административной панели.
type DashboardStats struct {
	TotalUsers            int            `json:"total_users"`
	ActiveUsers           int            `json:"active_users"`
	TotalOrganizations    int            `json:"total_organizations"`
	ActiveOrganizations   int            `json:"active_organizations"`
	TotalSubscriptions    int            `json:"total_subscriptions"`
	ActiveSubscriptions   int            `json:"active_subscriptions"`
	TrialingSubscriptions int            `json:"trialing_subscriptions"`
	RevenueMetrics        RevenueMetrics `json:"revenue_metrics"`
	RecentSignups         int            `json:"recent_signups"`       // За последние 7 дней
	RecentSubscriptions   int            `json:"recent_subscriptions"` // За последние 7 дней
}

// OrganizationStats — статистика по одной организации для административной панели.
type OrganizationStats struct {
	UID                string    `json:"id"`
	Name               string    `json:"name"`
	OwnerEmail         string    `json:"owner_email"`
	MemberCount        int       `json:"member_count"`
	CreatedAt          time.Time `json:"created_at"`
	SubscriptionStatus string    `json:"subscription_status"` // "none", если подписки нет
	PlanName           *string   `json:"plan_name"`
	MRR                int       `json:"mrr"` // Вклад организации в MRR, в центах
}

// ExpiringSubscription — подписка, истекающая в ближайшие дни.
type ExpiringSubscription struct {
	SubscriptionUID  string    `json:"subscription_id"`
	OrganizationName string    `json:"organization_name"`
	OwnerEmail       string    `json:"owner_email"`
	PlanName         string    `json:"plan_name"`
	ExpiresAt        time.Time `json:"expires_at"`
	DaysRemaining    int       `json:"days_remaining"`
}

// FailedPaymentSubscription — подписка со статусом неуспешной оплаты.
type FailedPaymentSubscription struct {
	SubscriptionUID  string    `json:"subscription_id"`
	OrganizationName string    `json:"organization_name"`
	OwnerEmail       string    `json:"owner_email"`
	PlanName         string    `json:"plan_name"`
	Status           string    `json:"status"`
	LastUpdated      time.Time `json:"last_updated"`
}

// UserDetails — подробная информация о пользователе для администратора.
type UserDetails struct {
	User               *User                `json:"user"`
	OwnedOrganizations []*Organization      `json:"owned_organizations"`
	Memberships        []*MembershipDetails `json:"memberships"`
}

// MembershipDetails — участие пользователя в организации с её названием.
type MembershipDetails struct {
	OrganizationName string    `json:"organization_name"`
	Role             string    `json:"role"`
	JoinedAt         time.Time `json:"joined_at"`
}
