package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"animal-catalog/internal/platform/token"
	"animal-catalog/internal/ports/auth"
)

type user struct {
	auth.User
	hash []byte
}

// Auth es un backend de autenticación local (modo dev y tests).
// Emite JWT HS256 con token.Manager; los refresh tokens son opacos y se rotan en cada uso.
type Auth struct {
	tokens   *token.Manager
	notifier *auth.Notifier

	mu       sync.Mutex
	byEmail  map[string]user
	refresh  map[string]string // refresh token -> user id
	revoked  map[string]struct{}
	failNext error
}

func NewAuth(tokens *token.Manager) *Auth {
	return &Auth{
		tokens:   tokens,
		notifier: auth.NewNotifier(),
		byEmail:  make(map[string]user),
		refresh:  make(map[string]string),
		revoked:  make(map[string]struct{}),
	}
}

func (a *Auth) Notifier() *auth.Notifier { return a.notifier }

// AddUser registra un usuario con la contraseña hasheada con bcrypt.
func (a *Auth) AddUser(email, password string) (auth.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return auth.User{}, errors.New("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return auth.User{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if u, ok := a.byEmail[email]; ok {
		u.hash = hash
		a.byEmail[email] = u
		return u.User, nil
	}
	u := user{User: auth.User{ID: uuid.NewString(), Email: email}, hash: hash}
	a.byEmail[email] = u
	return u.User, nil
}

// FailNext hace que la próxima llamada devuelva err (simula caídas del backend).
func (a *Auth) FailNext(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failNext = err
}

func (a *Auth) takeFailure() error {
	err := a.failNext
	a.failNext = nil
	return err
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (auth.Session, error) {
	a.mu.Lock()
	if err := a.takeFailure(); err != nil {
		a.mu.Unlock()
		return auth.Session{}, err
	}
	u, ok := a.byEmail[strings.ToLower(strings.TrimSpace(email))]
	a.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	s, err := a.issue(u.User)
	if err != nil {
		return auth.Session{}, err
	}
	a.notifier.Publish(auth.Event{Type: auth.EventSignedIn, Session: s})
	return s, nil
}

func (a *Auth) issue(u auth.User) (auth.Session, error) {
	at, exp, err := a.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return auth.Session{}, err
	}
	rt := uuid.NewString()

	a.mu.Lock()
	a.refresh[rt] = u.ID
	a.mu.Unlock()

	return auth.Session{AccessToken: at, RefreshToken: rt, ExpiresAt: exp, User: u}, nil
}

func (a *Auth) GetUser(ctx context.Context, accessToken string) (auth.User, error) {
	a.mu.Lock()
	if err := a.takeFailure(); err != nil {
		a.mu.Unlock()
		return auth.User{}, err
	}
	_, revoked := a.revoked[accessToken]
	a.mu.Unlock()

	if revoked {
		return auth.User{}, auth.ErrSessionExpired
	}
	claims, err := a.tokens.Validate(accessToken)
	if err != nil {
		return auth.User{}, auth.ErrSessionExpired
	}
	return auth.User{ID: claims.Subject, Email: claims.Email}, nil
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (auth.Session, error) {
	a.mu.Lock()
	if err := a.takeFailure(); err != nil {
		a.mu.Unlock()
		return auth.Session{}, err
	}
	uid, ok := a.refresh[refreshToken]
	delete(a.refresh, refreshToken)
	var u auth.User
	for _, candidate := range a.byEmail {
		if candidate.ID == uid {
			u = candidate.User
			break
		}
	}
	a.mu.Unlock()

	if !ok || u.ID == "" {
		return auth.Session{}, auth.ErrSessionExpired
	}

	s, err := a.issue(u)
	if err != nil {
		return auth.Session{}, err
	}
	a.notifier.Publish(auth.Event{Type: auth.EventTokenRefreshed, Session: s})
	return s, nil
}

func (a *Auth) SignOut(ctx context.Context, s auth.Session) error {
	a.mu.Lock()
	a.revoked[s.AccessToken] = struct{}{}
	delete(a.refresh, s.RefreshToken)
	a.mu.Unlock()

	a.notifier.Publish(auth.Event{Type: auth.EventSignedOut, Session: s, Previous: s.AccessToken})
	return nil
}
