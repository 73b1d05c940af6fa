// Package services содержит логику бизнес-уровня для регистрации,
// аутентификации и отзыва токенов.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/saas-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/saas-backend/internal/lib/password"
	"github.com/magabrotheeeer/saas-backend/internal/lib/slug"
	"github.com/magabrotheeeer/saas-backend/internal/models"
)

var (
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive возвращается для деактивированного пользователя.
	ErrUserInactive = errors.New("user is inactive")
	// ErrTokenRevoked возвращается для токена, отозванного через logout.
	ErrTokenRevoked = errors.New("token is revoked")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userUID string, at time.Time) error
}

// OrganizationRepository создаёт организацию при регистрации с её названием.
type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, org models.Organization) (string, error)
}

// TokenDenylist хранит отозванные токены до истечения их срока действия.
type TokenDenylist interface {
	DenylistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenDenylisted(ctx context.Context, jti string) (bool, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	orgs     OrganizationRepository
	denylist TokenDenylist
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, orgs OrganizationRepository,
	denylist TokenDenylist, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		orgs:     orgs,
		denylist: denylist,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля. Если указано
// название организации, она создаётся сразу, а пользователь становится её
// владельцем.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string,
	fullName *string, organizationName string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     fullName,
		IsActive:     true,
	}
	userUID, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", err
	}

	if organizationName != "" {
		org := models.Organization{
			Name:     organizationName,
			Slug:     slug.Make(organizationName),
			OwnerUID: userUID,
		}
		if _, err := s.orgs.CreateOrganization(ctx, org); err != nil {
			return "", fmt.Errorf("failed to create organization: %w", err)
		}
	}
	return userUID, nil
}

// Login проверяет пароль пользователя и генерирует пару JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*jwt.Pair, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	pair, err := s.jwtMaker.GeneratePair(user.UID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastLogin(ctx, user.UID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh проверяет refresh-токен и выдаёт новую пару. Старый refresh-токен
// отзывается, чтобы им нельзя было воспользоваться повторно.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.Pair, error) {
	claims, err := s.jwtMaker.ParseToken(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denylist.IsTokenDenylisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	user, err := s.users.GetUser(ctx, claims.UserUID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	pair, err := s.jwtMaker.GeneratePair(user.UID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.denylist.DenylistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout отзывает access-токен до конца его срока действия.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtMaker.ParseToken(accessToken, jwt.TokenTypeAccess)
	if err != nil {
		return err
	}
	return s.denylist.DenylistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// ValidateToken проверяет access-токен: подпись, отзыв и активность пользователя.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	claims, err := s.jwtMaker.ParseToken(token, jwt.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denylist.IsTokenDenylisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	user, err := s.users.GetUser(ctx, claims.UserUID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return claims, nil
}
