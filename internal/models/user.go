// Package models содержит доменные структуры сервиса: пользователей,
// организации с участниками, тарифные планы и подписки, а также
// вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string     `json:"id"`         // Уникальный идентификатор пользователя
	Email        string     `json:"email"`      // Электронная почта (уникальная)
	PasswordHash string     `json:"-"`          // Хэш пароля пользователя
	FullName     *string    `json:"full_name"`  // Полное имя (опционально)
	IsActive     bool       `json:"is_active"`  // Учётная запись активна
	IsVerified   bool       `json:"is_verified"` // Почта подтверждена
	IsAdmin      bool       `json:"is_admin"`   // Администратор сервиса
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login"` // Время последнего входа
}
