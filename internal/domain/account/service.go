package account

import (
	"context"
	"errors"
	"strings"

	"animal-catalog/internal/ports/auth"
)

// View es lo que muestra la pantalla de cuenta.
type View struct {
	Email      string
	Profile    Profile
	HasProfile bool
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get arma la vista de la cuenta. Un perfil inexistente no es error:
// el email siempre sale de la sesión.
func (s *Service) Get(ctx context.Context, u auth.User) (View, error) {
	v := View{Email: u.Email}
	if strings.TrimSpace(u.ID) == "" {
		return v, nil
	}

	p, err := s.repo.GetProfile(ctx, u.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return v, nil
		}
		return v, err
	}
	v.Profile = p
	v.HasProfile = true
	return v, nil
}
