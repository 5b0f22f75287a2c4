package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionCookieName = "token"

type SessionClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

func GenerateSessionToken(userID uuid.UUID, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := SessionClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSessionToken verifies signature and expiry and returns the user id.
func ParseSessionToken(tokenString string, secret []byte) (uuid.UUID, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	return uuid.Parse(claims.UserID)
}

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour
