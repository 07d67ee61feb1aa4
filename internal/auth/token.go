package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "checkin-api"

// GenerateToken mints a short-lived staff token for name.
func (g *Guard) GenerateToken(name string) (string, time.Time, error) {
	if len(g.secret) == 0 {
		return "", time.Time{}, ErrTokensDisabled
	}

	now := g.now()
	expires := now.Add(g.tokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseToken returns the subject of a valid staff token.
func (g *Guard) ParseToken(tokenString string) (string, error) {
	if len(g.secret) == 0 {
		return "", ErrTokensDisabled
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
