package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair is the access/refresh pair issued after verification or login
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer signs and parses JWTs
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair issues a fresh access/refresh token pair for a user
func (t *TokenIssuer) IssuePair(userID int64) (*TokenPair, error) {
	access, err := t.sign(userID, "access", t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(userID, "refresh", t.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (t *TokenIssuer) sign(userID int64, tokenType string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    tokenType,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates an access token and returns the user id
func (t *TokenIssuer) ParseAccessToken(tokenString string) (int64, error) {
	return t.parse(tokenString, "access")
}

// ParseRefreshToken validates a refresh token and returns the user id
func (t *TokenIssuer) ParseRefreshToken(tokenString string) (int64, error) {
	return t.parse(tokenString, "refresh")
}

func (t *TokenIssuer) parse(tokenString, wantType string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}
	if claims["type"] != wantType {
		return 0, fmt.Errorf("unexpected token type")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("invalid user id claim")
	}
	return int64(userID), nil
}
