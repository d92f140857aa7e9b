package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	TelegramID int64 `json:"telegram_id"`
	Admin      bool  `json:"admin"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs an HS256 session for a resolved Telegram identity.
func GenerateSessionToken(secret string, ttl time.Duration, telegramID int64, admin bool) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is not configured")
	}
	now := time.Now()
	claims := &Claims{
		TelegramID: telegramID,
		Admin:      admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(telegramID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseSessionToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
