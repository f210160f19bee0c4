package memory

import (
	"context"
	"sync"

	"animal-catalog/internal/domain/account"
)

type ProfilesRepo struct {
	mu   sync.RWMutex
	byID map[string]account.Profile
}

func NewProfilesRepo() *ProfilesRepo {
	return &ProfilesRepo{byID: make(map[string]account.Profile)}
}

// Put reemplaza el perfil (lo usan el seed de dev y los tests).
func (r *ProfilesRepo) Put(p account.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.UserID] = p
}

func (r *ProfilesRepo) GetProfile(ctx context.Context, userID string) (account.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[userID]
	if !ok {
		return account.Profile{}, account.ErrNotFound
	}
	return p, nil
}
