package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type receiptClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// SignReceiptPath creates a short-lived token granting read access to one stored receipt.
func SignReceiptPath(secret, path string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &receiptClaims{
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "receipt",
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseReceiptToken validates the token and returns the receipt path it grants.
func ParseReceiptToken(secret, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &receiptClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*receiptClaims); ok && token.Valid && claims.Path != "" {
		return claims.Path, nil
	}

	return "", errors.New("invalid receipt token")
}
