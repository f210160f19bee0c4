package account

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"animal-catalog/internal/ports/auth"
	"animal-catalog/internal/session"
	"animal-catalog/internal/views"
)

const (
	msgLoginOK          = "Login bem-sucedido!"
	msgLoginRejected    = "Erro ao fazer login: email ou senha inválidos."
	msgLoginUnavailable = "Erro ao fazer login: serviço indisponível. Tente novamente."
	msgLoginMissing     = "Erro ao fazer login: informe email e senha."
	msgAccountFailed    = "Erro ao carregar o perfil."
)

type HandlerOptions struct {
	Views *views.Views
	Guard session.Guard
	Auth  auth.Authenticator
}

func RegisterRoutes(r chi.Router, svc *Service, opts HandlerOptions) {
	v := opts.Views

	r.Group(func(pr chi.Router) {
		pr.Use(opts.Guard.Require(session.Public))
		pr.Get("/login", loginFormHandler(v))
		pr.Post("/login", loginHandler(opts.Auth, v))
	})

	r.Group(func(pr chi.Router) {
		pr.Use(opts.Guard.Require(session.Protected))
		pr.Get("/", homeHandler(v))
		pr.Get("/account", accountHandler(svc, v))
		pr.Post("/logout", logoutHandler(opts.Auth, v))
	})
}

type loginData struct {
	Next  string
	Email string
}

func loginFormHandler(v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := session.SafeNext(r.URL.Query().Get("next"))
		if session.FromContext(r.Context()).Status == session.StatusAuthenticated {
			http.Redirect(w, r, orHome(next), http.StatusSeeOther)
			return
		}
		v.Render(w, r, http.StatusOK, "login", v.Page(r, "Login", loginData{Next: next}))
	}
}

// loginHandler: credenciales inválidas dejan la sesión vacía y responden 401 sin redirect.
func loginHandler(a auth.Authenticator, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostForm.Get("email"))
		password := r.PostForm.Get("password")
		data := loginData{Next: session.SafeNext(r.PostForm.Get("next")), Email: email}

		if email == "" || password == "" {
			v.Fail(w, r, http.StatusBadRequest, "login", v.Page(r, "Login", data), msgLoginMissing, nil)
			return
		}

		sess, err := a.SignInWithPassword(r.Context(), email, password)
		if err != nil {
			v.Store().Remove(r.Context())
			if errors.Is(err, auth.ErrInvalidCredentials) {
				v.Fail(w, r, http.StatusUnauthorized, "login", v.Page(r, "Login", data), msgLoginRejected, err)
				return
			}
			v.Fail(w, r, http.StatusBadGateway, "login", v.Page(r, "Login", data), msgLoginUnavailable, err)
			return
		}

		if err := v.Store().Put(r.Context(), sess); err != nil {
			v.Fail(w, r, http.StatusInternalServerError, "login", v.Page(r, "Login", data), msgLoginUnavailable, err)
			return
		}

		v.Log().Info("user signed in", map[string]any{"user_id": sess.User.ID})
		v.Redirect(w, r, orHome(data.Next), msgLoginOK)
	}
}

// logoutHandler cierra en el backend y siempre destruye la sesión local.
func logoutHandler(a auth.Authenticator, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := session.FromContext(r.Context())
		if err := a.SignOut(r.Context(), st.Session); err != nil {
			v.Log().Warn("backend sign out failed", map[string]any{"user_id": st.Session.User.ID, "err": err})
		}
		if err := v.Store().Clear(r.Context()); err != nil {
			v.Log().Error("session destroy failed", map[string]any{"err": err})
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func homeHandler(v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v.Render(w, r, http.StatusOK, "home", v.Page(r, "Início", nil))
	}
}

func accountHandler(svc *Service, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := session.FromContext(r.Context()).User()

		view, err := svc.Get(r.Context(), u)
		if err != nil {
			v.Fail(w, r, http.StatusBadGateway, "account", v.Page(r, "Minha Conta", view), msgAccountFailed, err)
			return
		}
		v.Render(w, r, http.StatusOK, "account", v.Page(r, "Minha Conta", view))
	}
}

func orHome(next string) string {
	if next == "" {
		return "/"
	}
	return next
}
