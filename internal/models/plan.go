package models

import "time"

// Интервалы тарификации.
const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// Plan представляет тарифный план. Цена хранится в минимальных единицах
// валюты (центах). Лимиты со значением nil означают «без ограничений».
type Plan struct {
	UID              string    `json:"id"`
	Name             string    `json:"name"` // Название плана (уникальное)
	Slug             string    `json:"slug"` // URL-безопасный идентификатор (уникальный)
	Description      *string   `json:"description"`
	BillingProductID *string   `json:"billing_product_id"` // ID продукта на платёжной платформе
	BillingPriceID   *string   `json:"billing_price_id"`   // ID цены на платёжной платформе
	PriceAmount      int       `json:"price_amount"`       // Цена в центах
	Currency         string    `json:"currency"`
	Interval         string    `json:"interval"` // month или year
	MaxUsers         *int      `json:"max_users"`
	MaxProjects      *int      `json:"max_projects"`
	Features         *string   `json:"features"` // JSON-строка со списком возможностей
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DummyPlan используется для приёма данных плана из JSON-запроса
// до их валидации и передачи в бизнес-логику.
type DummyPlan struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty"`
	PriceAmount int     `json:"price_amount" validate:"required,gt=0"` // Цена в центах (>0)
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
	Interval    string  `json:"interval" validate:"required,oneof=month year"`
	MaxUsers    *int    `json:"max_users,omitempty" validate:"omitempty,gt=0"`
	MaxProjects *int    `json:"max_projects,omitempty" validate:"omitempty,gt=0"`
	Features    *string `json:"features,omitempty"`
}

// DummyPlanUpdate — частичное обновление плана; nil-поля не изменяются.
// Продукт и цена на платёжной платформе при обновлении не трогаются:
// для смены цены создаётся новый план.
type DummyPlanUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty"`
	MaxUsers    *int    `json:"max_users,omitempty" validate:"omitempty,gt=0"`
	MaxProjects *int    `json:"max_projects,omitempty" validate:"omitempty,gt=0"`
	Features    *string `json:"features,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
