package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	UserUID              string `json:"sub_uid"`    // Уникальный идентификатор пользователя
	Email                string `json:"email"`      // Электронная почта
	IsAdmin              bool   `json:"is_admin"`   // Признак администратора сервиса
	TokenType            string `json:"token_type"` // access или refresh
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, ID и пр.)
}

// GeneratePair выпускает пару access+refresh токенов, подписанных секретным ключом.
// Каждый токен получает собственный jti, по которому logout ведёт denylist.
func (j *MakerImpl) GeneratePair(userUID, email string, isAdmin bool) (*Pair, error) {
	const op = "jwt.GeneratePair"
	access, err := j.generate(userUID, email, isAdmin, TokenTypeAccess, j.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := j.generate(userUID, email, isAdmin, TokenTypeRefresh, j.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (j *MakerImpl) generate(userUID, email string, isAdmin bool, tokenType string, ttl time.Duration) (string, error) {
	claims := CustomClaims{
		UserUID:   userUID,
		Email:     email,
		IsAdmin:   isAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись, срок и тип,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr, expectedType string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("%s: unexpected token type %q", op, claims.TokenType)
	}
	return claims, nil
}
