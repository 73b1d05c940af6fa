// Package jwt реализует генерацию и парсинг JWT токенов с пользовательскими claim полями.
//
// Сервис использует пару токенов: короткоживущий access и долгоживущий refresh.
// Тип токена хранится в claims, чтобы refresh нельзя было предъявить как access.
package jwt

import (
	"time"
)

// Типы выпускаемых токенов.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Pair пара токенов, возвращаемая при логине и обновлении.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GeneratePair выпускает пару access+refresh для пользователя.
	GeneratePair(userUID, email string, isAdmin bool) (*Pair, error)
	// ParseToken проверяет подпись и срок токена и сверяет его тип.
	ParseToken(tokenStr, expectedType string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и отдельных сроков жизни для access и refresh токенов.
type MakerImpl struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl.
func NewJWTMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}
