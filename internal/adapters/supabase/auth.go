package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"animal-catalog/internal/platform/httpclient"
	"animal-catalog/internal/platform/token"
	"animal-catalog/internal/ports/auth"
)

// Auth implementa auth.Authenticator contra GoTrue (/auth/v1).
type Auth struct {
	client   *Client
	notifier *auth.Notifier
	now      func() time.Time
}

func NewAuth(client *Client) *Auth {
	return &Auth{
		client:   client,
		notifier: auth.NewNotifier(),
		now:      time.Now,
	}
}

func (a *Auth) Notifier() *auth.Notifier { return a.notifier }

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (a *Auth) toSession(tr tokenResponse) auth.Session {
	s := auth.Session{
		AccessToken:  strings.TrimSpace(tr.AccessToken),
		RefreshToken: strings.TrimSpace(tr.RefreshToken),
		User: auth.User{
			ID:    strings.TrimSpace(tr.User.ID),
			Email: strings.TrimSpace(tr.User.Email),
		},
	}
	switch {
	case tr.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		s.ExpiresAt = a.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		s.ExpiresAt = token.ExpiresAt(s.AccessToken)
	}
	return s
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (auth.Session, error) {
	var out tokenResponse
	err := a.client.http.DoJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", nil,
		map[string]string{"email": strings.TrimSpace(email), "password": password}, &out)
	if err != nil {
		return auth.Session{}, authError("sign in", err, auth.ErrInvalidCredentials)
	}

	s := a.toSession(out)
	if !s.Valid() {
		return auth.Session{}, fmt.Errorf("sign in: %w: incomplete session", ErrUpstream)
	}
	a.notifier.Publish(auth.Event{Type: auth.EventSignedIn, Session: s})
	return s, nil
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (auth.Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return auth.Session{}, auth.ErrSessionExpired
	}

	var out tokenResponse
	err := a.client.http.DoJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", nil,
		map[string]string{"refresh_token": refreshToken}, &out)
	if err != nil {
		return auth.Session{}, authError("refresh", err, auth.ErrSessionExpired)
	}

	s := a.toSession(out)
	if !s.Valid() {
		return auth.Session{}, fmt.Errorf("refresh: %w: incomplete session", ErrUpstream)
	}
	a.notifier.Publish(auth.Event{Type: auth.EventTokenRefreshed, Session: s})
	return s, nil
}

func (a *Auth) GetUser(ctx context.Context, accessToken string) (auth.User, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return auth.User{}, auth.ErrSessionExpired
	}

	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	err := a.client.http.DoJSON(ctx, http.MethodGet, "/auth/v1/user",
		map[string]string{"Authorization": "Bearer " + accessToken}, nil, &out)
	if err != nil {
		return auth.User{}, authError("get user", err, auth.ErrSessionExpired)
	}

	u := auth.User{ID: strings.TrimSpace(out.ID), Email: strings.TrimSpace(out.Email)}
	if u.ID == "" {
		return auth.User{}, fmt.Errorf("get user: %w: missing id", ErrUpstream)
	}
	return u, nil
}

// SignOut siempre publica SIGNED_OUT: aunque el backend falle, la sesión local se da por cerrada.
func (a *Auth) SignOut(ctx context.Context, s auth.Session) error {
	defer a.notifier.Publish(auth.Event{Type: auth.EventSignedOut, Session: s, Previous: s.AccessToken})

	if strings.TrimSpace(s.AccessToken) == "" {
		return nil
	}
	_, err := a.client.http.DoRaw(ctx, http.MethodPost, "/auth/v1/logout",
		map[string]string{"Authorization": "Bearer " + s.AccessToken}, nil, "")
	if err != nil && httpclient.StatusOf(err) != http.StatusUnauthorized {
		return authError("sign out", err, auth.ErrSessionExpired)
	}
	return nil
}

// authError: 4xx de credenciales -> rejected; red o 5xx -> ErrUnavailable.
func authError(op string, err error, rejected error) error {
	status := httpclient.StatusOf(err)
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnauthorized,
		status == http.StatusForbidden, status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", op, rejected)
	case status == 0, status >= 500:
		return fmt.Errorf("%s: %w: %v", op, auth.ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
	}
}
