package session

import (
	"net/http"
	"net/url"
	"strings"
)

type Access int

const (
	Public Access = iota
	Protected
)

type Decision int

const (
	Render Decision = iota
	Redirect
	Placeholder
)

func (d Decision) String() string {
	switch d {
	case Redirect:
		return "redirect"
	case Placeholder:
		return "placeholder"
	default:
		return "render"
	}
}

// Decide es la tabla completa del guard:
//
//	unknown       x cualquiera  -> placeholder
//	authenticated x cualquiera  -> render
//	anonymous     x public      -> render
//	anonymous     x protected   -> redirect a login
func Decide(st Status, a Access) Decision {
	switch st {
	case StatusAuthenticated:
		return Render
	case StatusAnonymous:
		if a == Public {
			return Render
		}
		return Redirect
	default:
		return Placeholder
	}
}

// Guard aplica Decide a las rutas.
type Guard struct {
	LoginPath   string
	Placeholder http.Handler
	NotFound    http.Handler
}

func (g Guard) loginPath() string {
	if g.LoginPath == "" {
		return "/login"
	}
	return g.LoginPath
}

// Require envuelve las rutas de un grupo con el nivel de acceso dado.
func (g Guard) Require(a Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch Decide(FromContext(r.Context()).Status, a) {
			case Render:
				next.ServeHTTP(w, r)
			case Redirect:
				g.redirectToLogin(w, r)
			default:
				g.placeholder(w, r)
			}
		})
	}
}

// Unmatched resuelve las rutas que no existen:
// authenticated -> 404, anonymous -> login, unknown -> placeholder.
func (g Guard) Unmatched() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch FromContext(r.Context()).Status {
		case StatusAuthenticated:
			if g.NotFound != nil {
				g.NotFound.ServeHTTP(w, r)
				return
			}
			http.NotFound(w, r)
		case StatusAnonymous:
			g.redirectToLogin(w, r)
		default:
			g.placeholder(w, r)
		}
	})
}

func (g Guard) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := g.loginPath()
	if next := SafeNext(r.URL.RequestURI()); next != "" && next != "/" && r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(next)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (g Guard) placeholder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "2")
	if g.Placeholder != nil {
		g.Placeholder.ServeHTTP(w, r)
		return
	}
	http.Error(w, "loading", http.StatusServiceUnavailable)
}

// SafeNext acepta sólo paths locales ("/x"), nunca "//host" ni URLs absolutas.
func SafeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	return raw
}
