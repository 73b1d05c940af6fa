package billing

// Customer — клиент платёжной платформы, привязанный к организации.
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Product — продукт платёжной платформы, соответствующий тарифному плану.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Price — цена продукта с периодом списания.
type Price struct {
	ID         string `json:"id"`
	ProductID  string `json:"product"`
	UnitAmount int    `json:"unit_amount"` // В центах
	Currency   string `json:"currency"`
	Recurring  struct {
		Interval string `json:"interval"` // month или year
	} `json:"recurring"`
}

// Subscription — подписка на стороне платёжной платформы.
type Subscription struct {
	ID                 string `json:"id"`
	CustomerID         string `json:"customer"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"` // Unix-секунды
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	TrialEnd           *int64 `json:"trial_end,omitempty"`
}

// Invoice — счёт, приходящий в событиях вебхуков об оплате.
type Invoice struct {
	ID             string `json:"id"`
	CustomerID     string `json:"customer"`
	SubscriptionID string `json:"subscription"`
	AmountPaid     int    `json:"amount_paid"`
	AmountDue      int    `json:"amount_due"`
	Status         string `json:"status"`
}

type createCustomerRequest struct {
	Email    string            `json:"email"`
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type createPriceRequest struct {
	ProductID  string `json:"product"`
	UnitAmount int    `json:"unit_amount"`
	Currency   string `json:"currency"`
	Recurring  struct {
		Interval string `json:"interval"`
	} `json:"recurring"`
}

type createSubscriptionRequest struct {
	CustomerID      string `json:"customer"`
	PriceID         string `json:"price"`
	TrialPeriodDays int    `json:"trial_period_days,omitempty"`
}

type updateSubscriptionRequest struct {
	PriceID           *string `json:"price,omitempty"`
	CancelAtPeriodEnd *bool   `json:"cancel_at_period_end,omitempty"`
}
