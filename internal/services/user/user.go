// Package services содержит логику бизнес-уровня для работы с профилем
// пользователя.
package services

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/saas-backend/internal/lib/password"
	"github.com/magabrotheeeer/saas-backend/internal/models"
)

// ErrWrongPassword возвращается при смене пароля с неверным текущим паролем.
var ErrWrongPassword = errors.New("current password is incorrect")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userUID string, email string, fullName *string, resetVerified bool) error
	UpdateUserPassword(ctx context.Context, userUID, passwordHash string) error
	DeactivateUser(ctx context.Context, userUID string) error
}

// UserService отвечает за чтение и изменение профиля пользователя.
type UserService struct {
	users UserRepository
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// Get возвращает профиль пользователя.
func (s *UserService) Get(ctx context.Context, userUID string) (*models.User, error) {
	return s.users.GetUser(ctx, userUID)
}

// UpdateProfile меняет email и/или имя. Смена email сбрасывает флаг
// подтверждения почты.
func (s *UserService) UpdateProfile(ctx context.Context, userUID string, email *string, fullName *string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	newEmail := user.Email
	resetVerified := false
	if email != nil && *email != user.Email {
		newEmail = *email
		resetVerified = true
	}
	newFullName := user.FullName
	if fullName != nil {
		newFullName = fullName
	}

	if err := s.users.UpdateUserProfile(ctx, userUID, newEmail, newFullName, resetVerified); err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, userUID)
}

// ChangePassword проверяет текущий пароль и сохраняет хэш нового.
func (s *UserService) ChangePassword(ctx context.Context, userUID, currentPassword, newPassword string) error {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return err
	}
	if err := password.CompareHash(user.PasswordHash, currentPassword); err != nil {
		return ErrWrongPassword
	}
	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdateUserPassword(ctx, userUID, hashed)
}

// Deactivate выполняет мягкое удаление аккаунта.
func (s *UserService) Deactivate(ctx context.Context, userUID string) error {
	return s.users.DeactivateUser(ctx, userUID)
}
