// Package auth выпускает и проверяет JWT-токены администратора REST API.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer имя издателя токенов
const Issuer = "neonite-mod"

// MinSecretLen минимальная длина ключа подписи
const MinSecretLen = 32

var (
	ErrShortSecret  = errors.New("auth: secret key must be at least 32 bytes")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims содержимое токена
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Signer подписывает и проверяет токены общим секретом (HS256)
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner создаёт подписчик. Пустой secret заменяется случайным ключом:
// токены тогда действуют только до перезапуска.
func NewSigner(secret string) (*Signer, error) {
	key := []byte(secret)
	if secret == "" {
		key = make([]byte, MinSecretLen)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("генерация ключа: %w", err)
		}
	}
	if len(key) < MinSecretLen {
		return nil, ErrShortSecret
	}
	return &Signer{secret: key, now: time.Now}, nil
}

// Issue выпускает токен для subject со сроком ttl
func (s *Signer) Issue(subject string, admin bool, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate проверяет подпись, срок и издателя
func (s *Signer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSecret случайный ключ в base64 для admin_secret
func GenerateSecret() (string, error) {
	b := make([]byte, MinSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
