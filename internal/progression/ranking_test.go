package progression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

func rankedUser(id, name string, points int) *user.User {
	u := user.New(name, id+"@example.com", user.ProviderLocal)
	u.ID = id
	u.EcoPoints = points
	return u
}

func TestRank_OrdersByPointsDescending(t *testing.T) {
	users := []*user.User{
		rankedUser("usr_a", "A", 2500),
		rankedUser("usr_b", "B", 100),
		rankedUser("usr_c", "C", 900),
	}

	entries := progression.Rank(users, "usr_c", 10)
	require.Len(t, entries, 3)

	assert.Equal(t, []int{2500, 900, 100}, []int{entries[0].Points, entries[1].Points, entries[2].Points})
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Position, entries[1].Position, entries[2].Position})
	assert.Equal(t, progression.LevelMestreAmbiental, entries[0].Level)
	assert.Equal(t, progression.LevelEcoWarrior, entries[1].Level)
	assert.True(t, entries[1].IsCurrentUser)
	assert.False(t, entries[0].IsCurrentUser)

	// Input slice is left untouched.
	assert.Equal(t, "usr_a", users[0].ID)
	assert.Equal(t, "usr_b", users[1].ID)
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	users := []*user.User{
		rankedUser("usr_1", "First", 300),
		rankedUser("usr_2", "Second", 500),
		rankedUser("usr_3", "Third", 300),
		rankedUser("usr_4", "Fourth", 300),
	}

	entries := progression.Rank(users, "", 10)
	require.Len(t, entries, 4)
	assert.Equal(t, "usr_2", entries[0].UserID)
	assert.Equal(t, "usr_1", entries[1].UserID)
	assert.Equal(t, "usr_3", entries[2].UserID)
	assert.Equal(t, "usr_4", entries[3].UserID)
}

func TestRank_Limit(t *testing.T) {
	var users []*user.User
	for i := 0; i < 15; i++ {
		users = append(users, rankedUser("usr_"+string(rune('a'+i)), "U", i*10))
	}

	entries := progression.Rank(users, "", 10)
	assert.Len(t, entries, 10)
	assert.Equal(t, 140, entries[0].Points)
	assert.Equal(t, 50, entries[9].Points)

	assert.Empty(t, progression.Rank(nil, "", 10))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, progression.DefaultRankingLimit, progression.ClampLimit(0))
	assert.Equal(t, progression.DefaultRankingLimit, progression.ClampLimit(-3))
	assert.Equal(t, 25, progression.ClampLimit(25))
	assert.Equal(t, progression.MaxRankingLimit, progression.ClampLimit(1000))
}
