package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animal-catalog/internal/ports/auth"
)

type testRepo map[string]Profile

func (r testRepo) GetProfile(_ context.Context, id string) (Profile, error) {
	if id == "boom" {
		return Profile{}, errors.New("backend down")
	}
	p, ok := r[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func TestService_Get(t *testing.T) {
	svc := NewService(testRepo{"u1": {UserID: "u1", Username: "mitu"}})
	ctx := context.Background()

	v, err := svc.Get(ctx, auth.User{ID: "u1", Email: "a@b.c"})
	require.NoError(t, err)
	assert.True(t, v.HasProfile)
	assert.Equal(t, "mitu", v.Profile.Username)
	assert.Equal(t, "a@b.c", v.Email)

	v, err = svc.Get(ctx, auth.User{ID: "u2", Email: "x@y.z"})
	require.NoError(t, err)
	assert.False(t, v.HasProfile)
	assert.Equal(t, "x@y.z", v.Email)

	v, err = svc.Get(ctx, auth.User{ID: "boom", Email: "e@e.e"})
	require.Error(t, err)
	assert.Equal(t, "e@e.e", v.Email)
}
