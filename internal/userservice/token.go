package userservice

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager signs and verifies the stateless credential tokens carried in
// the session cookie.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	UserID int `json:"uid"`
	jwt.RegisteredClaims
}

// Sign produces a signed token embedding the user's identifier, valid for the
// manager's ttl.
func (tm *TokenManager) Sign(userID int) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(tm.ttl)

	c := claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiry, nil
}

// Verify parses and validates a token and returns the embedded user ID. Any
// failure, including expiry, comes back as ErrInvalidToken.
func (tm *TokenManager) Verify(token string) (int, error) {
	c := &claims{}

	_, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return 0, ErrInvalidToken
	}

	if c.UserID < 1 {
		return 0, ErrInvalidToken
	}

	return c.UserID, nil
}
