package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"animal-catalog/internal/domain/animals"
	"animal-catalog/internal/platform/httpclient"
)

const animalsPath = "/rest/v1/animais"

// AnimalsRepo implementa animals.Repository sobre PostgREST (tabla "animais").
type AnimalsRepo struct {
	client *Client
}

func NewAnimalsRepo(client *Client) *AnimalsRepo {
	return &AnimalsRepo{client: client}
}

func (r *AnimalsRepo) headers(ctx context.Context) map[string]string {
	h := r.client.bearer(ctx)
	h["Prefer"] = "return=representation"
	return h
}

func byID(id string) string {
	return animalsPath + "?id=" + url.QueryEscape("eq."+strings.TrimSpace(id))
}

func (r *AnimalsRepo) Insert(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	a.ID = strings.TrimSpace(a.ID)

	var out []animals.Animal
	if err := r.client.http.DoJSON(ctx, http.MethodPost, animalsPath, r.headers(ctx), a, &out); err != nil {
		return animals.Animal{}, wrap("insert animal", err)
	}
	if len(out) == 0 {
		return animals.Animal{}, errors.New("insert animal: empty representation")
	}
	return out[0], nil
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	id := a.ID
	a.ID = ""

	var out []animals.Animal
	if err := r.client.http.DoJSON(ctx, http.MethodPatch, byID(id), r.headers(ctx), a, &out); err != nil {
		return animals.Animal{}, wrapNotFound("update animal", err)
	}
	if len(out) == 0 {
		return animals.Animal{}, animals.ErrNotFound
	}
	return out[0], nil
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	var out []animals.Animal
	if err := r.client.http.DoJSON(ctx, http.MethodGet, byID(id)+"&select=*", r.client.bearer(ctx), nil, &out); err != nil {
		return animals.Animal{}, wrapNotFound("get animal", err)
	}
	if len(out) == 0 {
		return animals.Animal{}, animals.ErrNotFound
	}
	return out[0], nil
}

func (r *AnimalsRepo) ListByName(ctx context.Context) ([]animals.Animal, error) {
	out := []animals.Animal{}
	path := animalsPath + "?select=*&order=nome_comum.asc"
	if err := r.client.http.DoJSON(ctx, http.MethodGet, path, r.client.bearer(ctx), nil, &out); err != nil {
		return nil, wrap("list animals", err)
	}
	return out, nil
}

func (r *AnimalsRepo) Delete(ctx context.Context, id string) error {
	var out []animals.Animal
	if err := r.client.http.DoJSON(ctx, http.MethodDelete, byID(id), r.headers(ctx), nil, &out); err != nil {
		return wrapNotFound("delete animal", err)
	}
	if len(out) == 0 {
		return animals.ErrNotFound
	}
	return nil
}

// wrapNotFound: PostgREST responde 400 cuando el id no es un uuid válido.
func wrapNotFound(op string, err error) error {
	switch httpclient.StatusOf(err) {
	case http.StatusNotFound, http.StatusBadRequest:
		return animals.ErrNotFound
	}
	return wrap(op, err)
}
