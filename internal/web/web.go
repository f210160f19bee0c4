// Package web contiene las plantillas y los assets de las pantallas.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"animal-catalog/internal/ports/auth"
)

//go:embed templates/*.html static/*
var files embed.FS

// Page es lo que recibe cada plantilla.
type Page struct {
	Title string
	// User es nil para anónimos.
	User  *auth.User
	Flash string
	Error string
	Data  any
}

// Renderer tiene cada página ya parseada junto con base.html.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
}

func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		page := strings.TrimPrefix(name, "templates/")
		if page == "base.html" {
			continue
		}
		t, err := template.New(page).Funcs(funcs).ParseFS(files, "templates/base.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[strings.TrimSuffix(page, ".html")] = t
	}
	return r, nil
}

// Render ejecuta en un buffer para no mandar una página a medias si la plantilla falla.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, p Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	buf := &bytes.Buffer{}
	if err := t.ExecuteTemplate(buf, "base", p); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static sirve /static/*.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
