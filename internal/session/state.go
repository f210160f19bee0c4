package session

import (
	"context"

	"animal-catalog/internal/ports/auth"
)

// Status es el estado de la sesión de un request.
// Arranca en StatusUnknown hasta que Resolve decide.
type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

type State struct {
	Status  Status
	Session auth.Session
}

func (s State) User() (auth.User, bool) {
	if s.Status != StatusAuthenticated {
		return auth.User{}, false
	}
	return s.Session.User, true
}

type ctxKey string

const stateKey ctxKey = "session_state"

func WithState(ctx context.Context, st State) context.Context {
	return context.WithValue(ctx, stateKey, st)
}

// FromContext devuelve StatusUnknown si el middleware no corrió.
func FromContext(ctx context.Context) State {
	st, ok := ctx.Value(stateKey).(State)
	if !ok {
		return State{Status: StatusUnknown}
	}
	return st
}
