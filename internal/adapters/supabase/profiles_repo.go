package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"animal-catalog/internal/domain/account"
)

type ProfilesRepo struct {
	client *Client
}

func NewProfilesRepo(client *Client) *ProfilesRepo {
	return &ProfilesRepo{client: client}
}

func (r *ProfilesRepo) GetProfile(ctx context.Context, userID string) (account.Profile, error) {
	path := "/rest/v1/profiles?select=id,username,website,avatar_url&id=" + url.QueryEscape("eq."+strings.TrimSpace(userID))

	var out []struct {
		ID        string  `json:"id"`
		Username  *string `json:"username"`
		Website   *string `json:"website"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := r.client.http.DoJSON(ctx, http.MethodGet, path, r.client.bearer(ctx), nil, &out); err != nil {
		return account.Profile{}, wrap("get profile", err)
	}
	if len(out) == 0 {
		return account.Profile{}, account.ErrNotFound
	}

	p := out[0]
	return account.Profile{
		UserID:    p.ID,
		Username:  deref(p.Username),
		Website:   deref(p.Website),
		AvatarURL: deref(p.AvatarURL),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
