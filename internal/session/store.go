package session

import (
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"animal-catalog/internal/ports/auth"
)

const (
	sessionKey   = "backend_session"
	browserIDKey = "browser_id"
	flashKey     = "flash"
)

type StoreOptions struct {
	Lifetime     time.Duration
	CookieName   string
	SecureCookie bool
}

// Store guarda la sesión del backend del lado del servidor (scs);
// el navegador sólo recibe la cookie opaca.
type Store struct {
	impl *scs.SessionManager
}

func NewStore(opts StoreOptions) *Store {
	gob.Register(auth.Session{})

	sm := scs.New()
	if opts.Lifetime > 0 {
		sm.Lifetime = opts.Lifetime
	}
	if opts.CookieName != "" {
		sm.Cookie.Name = opts.CookieName
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = opts.SecureCookie
	sm.Cookie.SameSite = http.SameSiteLaxMode

	return &Store{impl: sm}
}

func (s *Store) Wrap(next http.Handler) http.Handler {
	return s.impl.LoadAndSave(next)
}

func (s *Store) Get(ctx context.Context) (auth.Session, bool) {
	sess, ok := s.impl.Get(ctx, sessionKey).(auth.Session)
	return sess, ok
}

// Put renueva el token de la cookie (fijación de sesión) y guarda la sesión.
func (s *Store) Put(ctx context.Context, sess auth.Session) error {
	if err := s.impl.RenewToken(ctx); err != nil {
		return err
	}
	s.impl.Put(ctx, sessionKey, sess)
	return nil
}

// Replace guarda sin renovar cookie (refresh de token).
func (s *Store) Replace(ctx context.Context, sess auth.Session) {
	s.impl.Put(ctx, sessionKey, sess)
}

func (s *Store) Remove(ctx context.Context) {
	s.impl.Remove(ctx, sessionKey)
}

// Clear destruye todo (logout).
func (s *Store) Clear(ctx context.Context) error {
	return s.impl.Destroy(ctx)
}

// BrowserID identifica al navegador aunque no haya login (dueño de la cámara).
func (s *Store) BrowserID(ctx context.Context) string {
	if id := s.impl.GetString(ctx, browserIDKey); id != "" {
		return id
	}
	id := uuid.NewString()
	s.impl.Put(ctx, browserIDKey, id)
	return id
}

func (s *Store) PutFlash(ctx context.Context, msg string) {
	s.impl.Put(ctx, flashKey, msg)
}

func (s *Store) PopFlash(ctx context.Context) string {
	return s.impl.PopString(ctx, flashKey)
}
