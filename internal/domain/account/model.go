package account

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("profile not found")

// Profile es la fila de la tabla profiles del usuario (solo lectura desde la app).
type Profile struct {
	UserID    string `json:"id"`
	Username  string `json:"username"`
	Website   string `json:"website"`
	AvatarURL string `json:"avatar_url"`
}

type Repository interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
}
