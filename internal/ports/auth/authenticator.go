package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrUnavailable        = errors.New("auth backend unavailable")
)

// Authenticator es el contrato con el backend de autenticación.
// Las implementaciones publican eventos en su Notifier después de cada cambio.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, s Session) error

	// GetUser valida el access token contra el backend.
	GetUser(ctx context.Context, accessToken string) (User, error)
	Refresh(ctx context.Context, refreshToken string) (Session, error)

	Notifier() *Notifier
}

type ctxKey string

const accessTokenKey ctxKey = "access_token"

// WithAccessToken deja el token del usuario en el contexto para que los
// adapters del backend actúen en su nombre.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

func AccessToken(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accessTokenKey).(string)
	return v, ok && v != ""
}
