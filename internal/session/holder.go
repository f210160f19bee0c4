package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"animal-catalog/internal/platform/logger"
	"animal-catalog/internal/ports/auth"
)

type HolderOptions struct {
	// Timeout de la resolución contra el backend; al vencer el estado queda unknown.
	ResolveTimeout time.Duration
	// Cada cuánto se revalida un token ya visto.
	Revalidate time.Duration
	// Margen para refrescar antes de la expiración.
	RefreshLeeway time.Duration
}

// Holder resuelve la sesión de cada request y mantiene una caché de tokens
// validados, alimentada por los eventos del backend mientras está suscrito.
type Holder struct {
	auth auth.Authenticator
	log  logger.Logger
	opts HolderOptions
	now  func() time.Time

	mu      sync.RWMutex
	seen    map[string]time.Time // access token -> última validación
	revoked map[string]time.Time // access token -> cuándo se cerró

	sub *auth.Subscription
}

func NewHolder(a auth.Authenticator, log logger.Logger, opts HolderOptions) *Holder {
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = 3 * time.Second
	}
	if opts.Revalidate <= 0 {
		opts.Revalidate = time.Minute
	}
	if opts.RefreshLeeway <= 0 {
		opts.RefreshLeeway = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Holder{
		auth:    a,
		log:     log.With(map[string]any{"component": "session"}),
		opts:    opts,
		now:     time.Now,
		seen:    map[string]time.Time{},
		revoked: map[string]time.Time{},
	}
}

// Start suscribe el holder a los cambios de sesión. Se llama una vez (hook OnStart).
func (h *Holder) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sub != nil {
		return nil
	}
	h.sub = h.auth.Notifier().Subscribe(h.onEvent)
	return nil
}

// Stop cancela la suscripción (hook OnStop).
func (h *Holder) Stop(_ context.Context) error {
	h.mu.Lock()
	sub := h.sub
	h.sub = nil
	h.mu.Unlock()

	sub.Unsubscribe()
	return nil
}

func (h *Holder) onEvent(e auth.Event) {
	now := h.now()

	h.mu.Lock()
	defer h.mu.Unlock()

	switch e.Type {
	case auth.EventSignedIn:
		h.seen[e.Session.AccessToken] = now
	case auth.EventTokenRefreshed:
		if e.Previous != "" {
			delete(h.seen, e.Previous)
		}
		h.seen[e.Session.AccessToken] = now
	case auth.EventSignedOut:
		tok := e.Previous
		if tok == "" {
			tok = e.Session.AccessToken
		}
		delete(h.seen, tok)
		h.revoked[tok] = now
	}

	h.gcLocked(now)
}

// gcLocked descarta entradas viejas para que los mapas no crezcan sin límite.
func (h *Holder) gcLocked(now time.Time) {
	const keep = 24 * time.Hour
	for tok, at := range h.revoked {
		if now.Sub(at) > keep {
			delete(h.revoked, tok)
		}
	}
	for tok, at := range h.seen {
		if now.Sub(at) > keep {
			delete(h.seen, tok)
		}
	}
}

// Resolution es lo que el middleware debe aplicar al store del navegador.
type Resolution struct {
	State State

	// Replace != nil: guardar la sesión refrescada.
	Replace *auth.Session
	// Clear: borrar la sesión guardada.
	Clear bool
}

func (h *Holder) Resolve(ctx context.Context, stored auth.Session, ok bool) Resolution {
	if !ok || !stored.Valid() {
		return Resolution{State: State{Status: StatusAnonymous}, Clear: ok}
	}

	if h.isRevoked(stored.AccessToken) {
		return Resolution{State: State{Status: StatusAnonymous}, Clear: true}
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.ResolveTimeout)
	defer cancel()

	now := h.now()
	if stored.Expired(now, h.opts.RefreshLeeway) {
		return h.refresh(ctx, stored)
	}

	if h.fresh(stored.AccessToken, now) {
		return Resolution{State: State{Status: StatusAuthenticated, Session: stored}}
	}

	user, err := h.auth.GetUser(ctx, stored.AccessToken)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) {
			if stored.RefreshToken != "" {
				return h.refresh(ctx, stored)
			}
			return Resolution{State: State{Status: StatusAnonymous}, Clear: true}
		}
		h.log.Warn("session resolution failed", map[string]any{"err": err})
		return Resolution{State: State{Status: StatusUnknown}}
	}

	h.mu.Lock()
	h.seen[stored.AccessToken] = now
	h.mu.Unlock()

	stored.User = user
	return Resolution{State: State{Status: StatusAuthenticated, Session: stored}}
}

func (h *Holder) refresh(ctx context.Context, stored auth.Session) Resolution {
	if stored.RefreshToken == "" {
		return Resolution{State: State{Status: StatusAnonymous}, Clear: true}
	}

	next, err := h.auth.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, auth.ErrInvalidCredentials) {
			return Resolution{State: State{Status: StatusAnonymous}, Clear: true}
		}
		h.log.Warn("session refresh failed", map[string]any{"err": err})
		return Resolution{State: State{Status: StatusUnknown}}
	}
	return Resolution{
		State:   State{Status: StatusAuthenticated, Session: next},
		Replace: &next,
	}
}

func (h *Holder) isRevoked(tok string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.revoked[tok]
	return ok
}

func (h *Holder) fresh(tok string, now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	at, ok := h.seen[tok]
	return ok && now.Sub(at) < h.opts.Revalidate
}
