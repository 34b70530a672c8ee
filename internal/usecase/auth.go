package usecase

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidAPIKey = errors.New("invalid api key")

const defaultJWTTTL = 24 * time.Hour

// AuthUsecase exchanges the operator API key for a short-lived bearer
// token. The service is single-tenant; the key lives in the environment
// of whoever operates it.
type AuthUsecase struct {
	apiKey []byte
	jwtKey []byte
	jwtTTL time.Duration
}

func NewAuthUsecase(apiKey, jwtKey []byte) *AuthUsecase {
	return &AuthUsecase{apiKey: apiKey, jwtKey: jwtKey, jwtTTL: defaultJWTTTL}
}

func (u *AuthUsecase) IssueToken(apiKey string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(apiKey), u.apiKey) != 1 {
		return "", ErrInvalidAPIKey
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "operator",
		"iat": now.Unix(),
		"exp": now.Add(u.jwtTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}
