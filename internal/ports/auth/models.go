package auth

import (
	"strings"
	"time"
)

// User es la identidad que devuelve el backend de autenticación.
type User struct {
	ID    string
	Email string
}

// Session representa la sesión del backend (token opaco + identidad).
// Vive sólo en memoria del servidor; el navegador guarda una cookie opaca.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

func (s Session) Valid() bool {
	return strings.TrimSpace(s.AccessToken) != "" && strings.TrimSpace(s.User.ID) != ""
}

// Expired considera un margen para refrescar antes de que el backend rechace el token.
func (s Session) Expired(now time.Time, leeway time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(s.ExpiresAt)
}

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event se publica cada vez que cambia una sesión.
// Previous es el access token reemplazado (refresh) o cerrado (sign-out).
type Event struct {
	Type     EventType
	Session  Session
	Previous string
}
