package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/user"
)

func ptr[T any](v T) *T {
	return &v
}

func TestService_GetMe(t *testing.T) {
	repo := user.NewInMemoryRepository()
	svc := user.NewService(repo, nil)
	ctx := context.Background()

	u := user.New("Ana", "ana@example.com", user.ProviderLocal)
	require.NoError(t, repo.Create(ctx, u))

	me, err := svc.GetMe(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)

	_, err = svc.GetMe(ctx, "usr_missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestService_UpdateMe(t *testing.T) {
	repo := user.NewInMemoryRepository()
	svc := user.NewService(repo, nil)
	ctx := context.Background()

	ana := user.New("Ana", "ana@example.com", user.ProviderLocal)
	bia := user.New("Bia", "bia@example.com", user.ProviderLocal)
	require.NoError(t, repo.Create(ctx, ana))
	require.NoError(t, repo.Create(ctx, bia))

	tests := []struct {
		name    string
		input   user.UpdateInput
		wantErr error
	}{
		{"blank name", user.UpdateInput{Name: ptr("   ")}, user.ErrInvalidName},
		{"bad email", user.UpdateInput{Email: ptr("not-an-email")}, user.ErrInvalidEmail},
		{"display-name email", user.UpdateInput{Email: ptr("Ana <ana@example.com>")}, user.ErrInvalidEmail},
		{"taken email", user.UpdateInput{Email: ptr("BIA@example.com")}, user.ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateMe(ctx, ana.ID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	updated, err := svc.UpdateMe(ctx, ana.ID, user.UpdateInput{
		Name:  ptr("  Ana Clara "),
		Email: ptr("Ana.Clara@Example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Clara", updated.Name)
	assert.Equal(t, "ana.clara@example.com", updated.Email)

	stored, err := repo.GetByEmail(ctx, "ana.clara@example.com")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, stored.ID)

	_, err = svc.UpdateMe(ctx, "usr_missing", user.UpdateInput{Name: ptr("x")})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
