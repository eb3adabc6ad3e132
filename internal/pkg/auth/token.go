package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the data stored inside an access token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates HS256 access tokens. The same manager is
// shared by the REST middleware and the realtime identify handshake so both
// surfaces accept exactly the same tokens.
type TokenManager struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

func NewTokenManager(secret string, issuer string, lifetime time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, lifetime: lifetime}
}

// Generate creates a signed token for the given user.
func (m *TokenManager) Generate(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: user id is required")
	}
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a token string and verifies its signature and expiry.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
