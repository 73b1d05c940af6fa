package models

import "time"

// Роли участников организации.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// ValidMemberRole проверяет, что роль входит в список допустимых.
func ValidMemberRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Organization представляет организацию — единицу мультиарендности.
// Все подписки и лимиты привязаны к организации, а не к пользователю.
type Organization struct {
	UID               string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"` // URL-безопасный идентификатор (уникальный)
	Description       *string   `json:"description"`
	OwnerUID          string    `json:"owner_id"`
	BillingCustomerID *string   `json:"billing_customer_id"` // ID клиента на платёжной платформе
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// OrganizationMember связывает пользователя с организацией и хранит его роль.
type OrganizationMember struct {
	UID             string    `json:"id"`
	OrganizationUID string    `json:"organization_id"`
	UserUID         string    `json:"user_id"`
	Role            string    `json:"role"` // owner, admin, member или viewer
	JoinedAt        time.Time `json:"joined_at"`
}
