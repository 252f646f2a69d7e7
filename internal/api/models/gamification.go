package models

import (
	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/rewards"
	"github.com/ecosphere/ecosphere/internal/user"
)

// EarnedBadge is a badge held by the user.
type EarnedBadge struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	EarnedAt Timestamp `json:"earnedAt"`
}

func newEarnedBadges(badges []user.EarnedBadge) []EarnedBadge {
	out := make([]EarnedBadge, 0, len(badges))
	for _, b := range badges {
		out = append(out, EarnedBadge{ID: b.BadgeID, Name: b.Name, EarnedAt: Timestamp(b.EarnedAt)})
	}
	return out
}

// Streak is the user's activity streak.
type Streak struct {
	Current      int        `json:"current"`
	Longest      int        `json:"longest"`
	LastActivity *Timestamp `json:"lastActivity,omitempty"`
}

// GamificationProfile is the user's progression state.
type GamificationProfile struct {
	EcoPoints            int           `json:"ecoPoints"`
	Level                string        `json:"level"`
	Badges               []EarnedBadge `json:"badges"`
	Streak               Streak        `json:"streak"`
	TotalClassifications int           `json:"totalClassifications"`
	CompletedMissions    int           `json:"completedMissions"`
}

// NewGamificationProfile converts an engine summary to its wire form.
func NewGamificationProfile(s *progression.Summary) GamificationProfile {
	return GamificationProfile{
		EcoPoints: s.EcoPoints,
		Level:     string(s.Level),
		Badges:    newEarnedBadges(s.Badges),
		Streak: Streak{
			Current:      s.Streak.Current,
			Longest:      s.Streak.Longest,
			LastActivity: TimestampPtr(s.Streak.LastActivity),
		},
		TotalClassifications: s.TotalClassifications,
		CompletedMissions:    s.CompletedMissions,
	}
}

// ActionInput is the request body for recording an action.
// Points is loosely typed; numeric strings are accepted and anything else counts as zero.
type ActionInput struct {
	Type   string         `json:"type"`
	Points any            `json:"points"`
	Data   map[string]any `json:"data,omitempty"`
}

// ActionResult is the state after an action or redemption.
type ActionResult struct {
	EcoPoints int `json:"ecoPoints"`

	// TotalPoints repeats the delta applied by this call, as older clients read it.
	TotalPoints   int           `json:"totalPoints"`
	PointsAwarded int           `json:"pointsAwarded"`
	Level         string        `json:"level"`
	LevelChanged  bool          `json:"levelChanged"`
	NewBadges     []EarnedBadge `json:"newBadges"`
}

// NewActionResult converts an engine outcome to its wire form.
func NewActionResult(o *progression.Outcome) ActionResult {
	return ActionResult{
		EcoPoints:     o.EcoPoints,
		TotalPoints:   o.PointsAwarded,
		PointsAwarded: o.PointsAwarded,
		Level:         string(o.Level),
		LevelChanged:  o.LevelChanged,
		NewBadges:     newEarnedBadges(o.NewBadges),
	}
}

// BadgeStatus is a catalog badge with the user's earned flag.
type BadgeStatus struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Points      int        `json:"points"`
	Earned      bool       `json:"earned"`
	EarnedAt    *Timestamp `json:"earnedAt,omitempty"`
}

// NewBadgeStatuses converts engine badge statuses to their wire form.
func NewBadgeStatuses(statuses []progression.BadgeStatus) []BadgeStatus {
	out := make([]BadgeStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, BadgeStatus{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Points:      s.Points,
			Earned:      s.Earned,
			EarnedAt:    TimestampPtr(s.EarnedAt),
		})
	}
	return out
}

// Ranking is the leaderboard response.
type Ranking struct {
	Entries []progression.RankingEntry `json:"entries"`
	Limit   int                        `json:"limit"`
}

// RewardList is the reward catalog response.
type RewardList struct {
	Rewards []rewards.Reward `json:"rewards"`
}

// Redemption is the result of redeeming a reward.
type Redemption struct {
	Reward rewards.Reward `json:"reward"`
	ActionResult
}
