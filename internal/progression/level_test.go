package progression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

func TestLevelFor_Boundaries(t *testing.T) {
	tests := []struct {
		points int
		want   progression.Level
	}{
		{-10, progression.LevelIniciante},
		{0, progression.LevelIniciante},
		{49, progression.LevelIniciante},
		{50, progression.LevelInicianteConsciente},
		{199, progression.LevelInicianteConsciente},
		{200, progression.LevelReciclador},
		{499, progression.LevelReciclador},
		{500, progression.LevelEcoWarrior},
		{999, progression.LevelEcoWarrior},
		{1000, progression.LevelGuardiaoVerde},
		{1999, progression.LevelGuardiaoVerde},
		{2000, progression.LevelMestreAmbiental},
		{1_000_000, progression.LevelMestreAmbiental},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, progression.LevelFor(tt.points), "points=%d", tt.points)
	}
}

func TestLevelFor_Names(t *testing.T) {
	assert.Equal(t, "Iniciante", progression.LevelName(0))
	assert.Equal(t, "Iniciante Consciente", progression.LevelName(50))
	assert.Equal(t, "Guardião Verde", progression.LevelName(1999))
	assert.Equal(t, "Mestre Ambiental", progression.LevelName(2000))
}

func TestLevelFor_Monotonic(t *testing.T) {
	prev := progression.LevelFor(0).Rank()
	for p := 1; p <= 2500; p++ {
		rank := progression.LevelFor(p).Rank()
		assert.GreaterOrEqual(t, rank, prev, "level dropped at %d points", p)
		prev = rank
	}
}

func TestLevel_RankAndThreshold(t *testing.T) {
	levels := progression.Levels()
	assert.Len(t, levels, 6)

	for i, l := range levels {
		assert.Equal(t, i, l.Rank())
		assert.Equal(t, l, progression.LevelFor(l.Threshold()))
		if l.Threshold() > 0 {
			assert.NotEqual(t, l, progression.LevelFor(l.Threshold()-1))
		}
	}

	assert.Equal(t, -1, progression.Level("Unknown").Rank())
	assert.Equal(t, -1, progression.Level("Unknown").Threshold())
}

func TestLevel_Next(t *testing.T) {
	next, ok := progression.LevelIniciante.Next()
	assert.True(t, ok)
	assert.Equal(t, progression.LevelInicianteConsciente, next)

	_, ok = progression.LevelMestreAmbiental.Next()
	assert.False(t, ok)
}

func TestInitialLevelMatchesZeroPoints(t *testing.T) {
	assert.Equal(t, user.InitialLevel, progression.LevelName(0))
}
