package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"animal-catalog/internal/domain/animals"
)

type animalsRepo struct {
	mu   sync.RWMutex
	byID map[string]animals.Animal
}

func NewAnimalsRepo() animals.Repository {
	return &animalsRepo{
		byID: make(map[string]animals.Animal),
	}
}

func (r *animalsRepo) Insert(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := r.byID[a.ID]; exists {
		return animals.Animal{}, errors.New("animal already exists")
	}
	r.byID[a.ID] = a
	return a, nil
}

func (r *animalsRepo) Update(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID]; !exists {
		return animals.Animal{}, animals.ErrNotFound
	}
	r.byID[a.ID] = a
	return a, nil
}

func (r *animalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

func (r *animalsRepo) ListByName(ctx context.Context) ([]animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.Animal, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}

	// nome_comum asc; id desempata para que el orden sea estable
	sort.Slice(out, func(i, j int) bool {
		if out[i].CommonName != out[j].CommonName {
			return out[i].CommonName < out[j].CommonName
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *animalsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return animals.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
