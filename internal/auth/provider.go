package auth

import "context"

// User is the authenticated identity the backend calls run as.
type User struct {
	Email    string
	FullName string
}

// SessionProvider supplies the ambient authenticated session. Business
// logic never reads tokens from storage directly; it asks this interface.
type SessionProvider interface {
	CurrentUser(ctx context.Context) (User, error)
	Token(ctx context.Context) (string, error)
}

// StaticProvider serves a fixed bearer token, useful for API keys and tests.
type StaticProvider struct {
	User        User
	BearerToken string
}

func NewStaticProvider(email, token string) *StaticProvider {
	return &StaticProvider{User: User{Email: email}, BearerToken: token}
}

func (p *StaticProvider) CurrentUser(ctx context.Context) (User, error) {
	return p.User, nil
}

func (p *StaticProvider) Token(ctx context.Context) (string, error) {
	return p.BearerToken, nil
}
