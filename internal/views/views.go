// Package views junta lo que comparten los handlers de pantallas:
// armar web.Page desde la sesión, renderizar y loguear fallas.
package views

import (
	"net/http"

	"animal-catalog/internal/platform/logger"
	"animal-catalog/internal/session"
	"animal-catalog/internal/web"
)

type Views struct {
	renderer *web.Renderer
	store    *session.Store
	log      logger.Logger
}

func New(renderer *web.Renderer, store *session.Store, log logger.Logger) *Views {
	if log == nil {
		log = logger.Nop()
	}
	return &Views{renderer: renderer, store: store, log: log}
}

func (v *Views) Store() *session.Store { return v.store }
func (v *Views) Log() logger.Logger    { return v.log }

// Page arma los datos comunes (usuario, flash) de la página.
func (v *Views) Page(r *http.Request, title string, data any) web.Page {
	p := web.Page{Title: title, Data: data}
	if u, ok := session.FromContext(r.Context()).User(); ok {
		p.User = &u
	}
	if v.store != nil {
		p.Flash = v.store.PopFlash(r.Context())
	}
	return p
}

func (v *Views) Render(w http.ResponseWriter, r *http.Request, status int, name string, p web.Page) {
	if err := v.renderer.Render(w, status, name, p); err != nil {
		v.log.Error("render failed", map[string]any{"template": name, "path": r.URL.Path, "err": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Fail loguea la causa y muestra la página con el mensaje para el usuario.
func (v *Views) Fail(w http.ResponseWriter, r *http.Request, status int, name string, p web.Page, msg string, err error) {
	if err != nil {
		v.log.Warn("view error", map[string]any{"template": name, "path": r.URL.Path, "status": status, "err": err})
	}
	p.Error = msg
	v.Render(w, r, status, name, p)
}

// Redirect con mensaje de una sola vez para la próxima página.
func (v *Views) Redirect(w http.ResponseWriter, r *http.Request, path, flash string) {
	if flash != "" && v.store != nil {
		v.store.PutFlash(r.Context(), flash)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// Placeholder es la pantalla de carga mientras la sesión no se resolvió.
func (v *Views) Placeholder() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v.Render(w, r, http.StatusServiceUnavailable, "loading", web.Page{Title: "Carregando"})
	})
}

func (v *Views) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v.Render(w, r, http.StatusNotFound, "not_found", v.Page(r, "Página não encontrada", nil))
	})
}
