// Package token issues and verifies signed session tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer и Audience фиксированы для всех токенов приложения
	Issuer   = "babysteps"
	Audience = "babysteps-app"

	// DefaultTTL время жизни токена по умолчанию
	DefaultTTL = 365 * 24 * time.Hour
)

// ErrSecretUnset is returned by NewCodec when no signing secret is configured.
var ErrSecretUnset = errors.New("token signing secret is not set")

// Claims представляет JWT claims сессии
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Codec создает и проверяет токены сессии (HS256)
type Codec struct {
	now    func() time.Time
	secret []byte
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec создает новый Codec
// Пустой secret - ошибка конфигурации, проверяется при старте
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrSecretUnset
	}

	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Create подписывает токен для userID. ttl <= 0 означает DefaultTTL
func (c *Codec) Create(userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := c.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify возвращает userID из валидного токена
// Любая ошибка (подпись, issuer/audience, срок, формат payload) дает (0, false):
// вызывающий код не различает причины
func (c *Codec) Verify(tokenString string) (int64, bool) {
	if tokenString == "" {
		return 0, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return 0, false
	}

	if claims.UserID <= 0 {
		return 0, false
	}

	return claims.UserID, true
}
