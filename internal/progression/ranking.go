package progression

import (
	"cmp"
	"slices"

	"github.com/ecosphere/ecosphere/internal/user"
)

// Ranking limits.
const (
	DefaultRankingLimit = 10
	MaxRankingLimit     = 100
)

// RankingEntry is one row of the leaderboard.
type RankingEntry struct {
	Position      int    `json:"position"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Level         Level  `json:"level"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}

// ClampLimit normalizes a requested ranking size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRankingLimit
	}
	return min(limit, MaxRankingLimit)
}

// Rank orders users by EcoPoints descending and returns the first limit entries.
// Users with equal points keep their input order.
func Rank(users []*user.User, currentUserID string, limit int) []RankingEntry {
	sorted := slices.Clone(users)
	slices.SortStableFunc(sorted, func(a, b *user.User) int {
		return cmp.Compare(b.EcoPoints, a.EcoPoints)
	})

	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]RankingEntry, 0, len(sorted))
	for i, u := range sorted {
		entries = append(entries, RankingEntry{
			Position:      i + 1,
			UserID:        u.ID,
			Name:          u.Name,
			Points:        u.EcoPoints,
			Level:         LevelFor(u.EcoPoints),
			IsCurrentUser: u.ID == currentUserID,
		})
	}

	return entries
}
