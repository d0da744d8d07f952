// Package auth turns bearer tokens into projector actors.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"projector-server/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carried by an actor token
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenParser validates HS256 actor tokens
type TokenParser struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewTokenParser creates a parser for tokens signed with secret
func NewTokenParser(secret, issuer string, leeway time.Duration) *TokenParser {
	return &TokenParser{
		secret: []byte(secret),
		issuer: issuer,
		leeway: leeway,
	}
}

// Issue signs a token for the actor, valid for ttl
func (p *TokenParser) Issue(actor models.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates the token and returns the actor it names
func (p *TokenParser) Parse(token string) (models.Actor, error) {
	var claims Claims
	keyFunc := func(*jwt.Token) (any, error) {
		return p.secret, nil
	}
	_, err := jwt.ParseWithClaims(token, &claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithLeeway(p.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Actor{}, ErrTokenExpired
		}
		return models.Actor{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return models.Actor{}, ErrInvalidToken
	}

	return models.Actor{
		ID:   claims.Subject,
		Role: models.NormalizeRole(claims.Role),
	}, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
