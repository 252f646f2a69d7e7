package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/user"
)

func TestNew(t *testing.T) {
	u := user.New("Ana Souza", "  Ana@Example.COM ", user.ProviderLocal)

	assert.True(t, len(u.ID) == 26 && u.ID[:4] == "usr_", "unexpected id %q", u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, 0, u.EcoPoints)
	assert.Equal(t, user.InitialLevel, u.Level)
	assert.NotNil(t, u.Badges)
	assert.NotNil(t, u.WasteClassifications)
	assert.NotNil(t, u.GameHistory)
	assert.NotNil(t, u.Redemptions)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestProvider_Valid(t *testing.T) {
	for _, p := range []user.Provider{user.ProviderLocal, user.ProviderGoogle, user.ProviderFacebook, user.ProviderGitHub} {
		assert.True(t, p.Valid(), string(p))
	}
	assert.False(t, user.Provider("apple").Valid())
	assert.False(t, user.Provider("").Valid())
}

func TestUser_HasBadgeAndGamePoints(t *testing.T) {
	u := user.New("Ana", "ana@example.com", user.ProviderLocal)
	assert.False(t, u.HasBadge(1))
	assert.Equal(t, 0, u.GamePoints())

	u.Badges = append(u.Badges, user.EarnedBadge{BadgeID: 1, Name: "Bem-vindo"})
	u.GameHistory = append(u.GameHistory,
		user.GameEntry{GameType: "quiz", Points: 30},
		user.GameEntry{GameType: "eco_catcher", Points: 45},
	)

	assert.True(t, u.HasBadge(1))
	assert.False(t, u.HasBadge(2))
	assert.Equal(t, 75, u.GamePoints())
}

func TestUser_CloneIsDeep(t *testing.T) {
	now := time.Now()
	u := user.New("Ana", "ana@example.com", user.ProviderLocal)
	u.Badges = append(u.Badges, user.EarnedBadge{BadgeID: 1})
	u.GameHistory = append(u.GameHistory, user.GameEntry{GameType: "quiz", Data: map[string]any{"score": 3}})
	u.LastLoginAt = &now

	c := u.Clone()
	c.Badges[0].BadgeID = 99
	c.GameHistory[0].Data["score"] = 10
	*c.LastLoginAt = now.Add(time.Hour)

	assert.Equal(t, 1, u.Badges[0].BadgeID)
	assert.Equal(t, 3, u.GameHistory[0].Data["score"])
	assert.Equal(t, now, *u.LastLoginAt)
	assert.NotNil(t, c.Redemptions)

	var nilUser *user.User
	assert.Nil(t, nilUser.Clone())
}

func TestInMemoryRepository_CRUD(t *testing.T) {
	repo := user.NewInMemoryRepository()
	ctx := context.Background()

	u := user.New("Ana", "ana@example.com", user.ProviderLocal)
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)

	got, err = repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got.EcoPoints = 120
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, again.EcoPoints)

	_, err = repo.Get(ctx, "usr_missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	missing := user.New("Ghost", "ghost@example.com", user.ProviderLocal)
	assert.ErrorIs(t, repo.Update(ctx, missing), user.ErrUserNotFound)

	assert.NoError(t, repo.Ping(ctx))
}

func TestInMemoryRepository_Isolation(t *testing.T) {
	repo := user.NewInMemoryRepository()
	ctx := context.Background()

	u := user.New("Ana", "ana@example.com", user.ProviderLocal)
	require.NoError(t, repo.Create(ctx, u))

	// Mutating the caller's copy does not leak into storage.
	u.EcoPoints = 999
	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.EcoPoints)

	got.Badges = append(got.Badges, user.EarnedBadge{BadgeID: 1})
	again, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Badges)
}

func TestInMemoryRepository_EmailUniqueness(t *testing.T) {
	repo := user.NewInMemoryRepository()
	ctx := context.Background()

	a := user.New("Ana", "ana@example.com", user.ProviderLocal)
	b := user.New("Bia", "bia@example.com", user.ProviderLocal)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	dup := user.New("Other Ana", "ANA@EXAMPLE.COM", user.ProviderGoogle)
	assert.ErrorIs(t, repo.Create(ctx, dup), user.ErrEmailTaken)

	b.Email = "ana@example.com"
	assert.ErrorIs(t, repo.Update(ctx, b), user.ErrEmailTaken)

	b.Email = "bia.new@example.com"
	require.NoError(t, repo.Update(ctx, b))

	_, err := repo.GetByEmail(ctx, "bia@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	got, err := repo.GetByEmail(ctx, "bia.new@example.com")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestInMemoryRepository_ListKeepsInsertionOrder(t *testing.T) {
	repo := user.NewInMemoryRepository()
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"c", "a", "b"} {
		u := user.New(name, name+"@example.com", user.ProviderLocal)
		require.NoError(t, repo.Create(ctx, u))
		ids = append(ids, u.ID)
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for i, u := range users {
		assert.Equal(t, ids[i], u.ID)
	}
}
