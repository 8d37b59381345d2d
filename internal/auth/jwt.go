package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTProvider serves a JWT issued by the external session provider. The
// token is not verified cryptographically here (the backend does that);
// claims are parsed to expose the user and to reject expired tokens early.
type JWTProvider struct {
	raw string
}

func NewJWTProvider(rawToken string) *JWTProvider {
	return &JWTProvider{raw: rawToken}
}

func (p *JWTProvider) claims() (jwt.MapClaims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(p.raw, claims); err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	return claims, nil
}

func (p *JWTProvider) CurrentUser(ctx context.Context) (User, error) {
	claims, err := p.claims()
	if err != nil {
		return User{}, err
	}
	u := User{}
	if email, ok := claims["email"].(string); ok {
		u.Email = email
	} else if sub, ok := claims["sub"].(string); ok {
		u.Email = sub
	}
	if name, ok := claims["name"].(string); ok {
		u.FullName = name
	}
	return u, nil
}

func (p *JWTProvider) Token(ctx context.Context) (string, error) {
	claims, err := p.claims()
	if err != nil {
		return "", err
	}
	// Tokens without an exp claim pass; the backend is the authority.
	if !claims.VerifyExpiresAt(time.Now().Unix(), false) {
		return "", fmt.Errorf("session token expired")
	}
	return p.raw, nil
}
