// Package user provides the canonical EcoSphere user record and its persistence.
//
// Every storage backend (memory, PostgreSQL, MongoDB) reads and writes the same
// User type. Legacy document shapes are translated at the repository boundary.
package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider identifies how a user authenticates.
type Provider string

// Supported identity providers.
const (
	ProviderLocal    Provider = "local"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderGitHub   Provider = "github"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderLocal, ProviderGoogle, ProviderFacebook, ProviderGitHub:
		return true
	}
	return false
}

// InitialLevel is the tier assigned to a user with zero EcoPoints.
const InitialLevel = "Iniciante"

// User is a registered EcoSphere user.
type User struct {
	// ID is the unique user identifier (format: usr_XXXX).
	ID string

	Name  string
	Email string

	// PasswordHash is the bcrypt hash; empty for federated accounts.
	PasswordHash string

	// Picture is the federated profile picture URL, if any.
	Picture string

	Provider   Provider
	ProviderID string

	// EcoPoints is the non-negative reward balance.
	EcoPoints int

	// Level is derived from EcoPoints and must not be set directly by callers.
	Level string

	Badges               []EarnedBadge
	WasteClassifications []WasteClassification
	GameHistory          []GameEntry
	Redemptions          []Redemption

	// Streak is stored for display but no rule maintains it.
	Streak Streak

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// The nested record types carry json and bson tags because the PostgreSQL
// repository stores them as JSONB and the MongoDB repository embeds them.

// EarnedBadge records a badge held by a user.
type EarnedBadge struct {
	BadgeID  int       `json:"badgeId" bson:"id"`
	Name     string    `json:"name" bson:"name"`
	EarnedAt time.Time `json:"earnedAt" bson:"earnedAt"`
}

// WasteClassification is one recorded classification action.
type WasteClassification struct {
	Type       string    `json:"type" bson:"type"`
	Confidence float64   `json:"confidence" bson:"confidence"`
	Points     int       `json:"points" bson:"points"`
	Date       time.Time `json:"date" bson:"date"`
}

// GameEntry is one recorded quiz or mini-game result.
type GameEntry struct {
	GameType string         `json:"gameType" bson:"gameType"`
	Points   int            `json:"points" bson:"points"`
	Date     time.Time      `json:"date" bson:"date"`
	Data     map[string]any `json:"data,omitempty" bson:"data,omitempty"`
}

// Redemption is one reward exchanged for EcoPoints.
type Redemption struct {
	RewardID int       `json:"rewardId" bson:"rewardId"`
	Name     string    `json:"name" bson:"name"`
	Points   int       `json:"points" bson:"points"`
	Date     time.Time `json:"date" bson:"date"`
}

// Streak holds activity streak counters.
type Streak struct {
	Current      int        `json:"current" bson:"current"`
	Longest      int        `json:"longest" bson:"longest"`
	LastActivity *time.Time `json:"lastActivity,omitempty" bson:"lastActivity,omitempty"`
}

// New returns a fresh user with an empty progression state.
func New(name, email string, provider Provider) *User {
	now := time.Now()
	return &User{
		ID:                   NewID(),
		Name:                 name,
		Email:                NormalizeEmail(email),
		Provider:             provider,
		Level:                InitialLevel,
		Badges:               []EarnedBadge{},
		WasteClassifications: []WasteClassification{},
		GameHistory:          []GameEntry{},
		Redemptions:          []Redemption{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// NewID generates a user identifier.
func NewID() string {
	return "usr_" + uuid.New().String()[:22]
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasBadge reports whether the user already holds the badge with the given id.
func (u *User) HasBadge(id int) bool {
	for _, b := range u.Badges {
		if b.BadgeID == id {
			return true
		}
	}
	return false
}

// GamePoints returns the sum of points across the game history.
func (u *User) GamePoints() int {
	total := 0
	for _, g := range u.GameHistory {
		total += g.Points
	}
	return total
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	c := *u
	c.Badges = cloneSlice(u.Badges)
	c.WasteClassifications = cloneSlice(u.WasteClassifications)
	c.Redemptions = cloneSlice(u.Redemptions)

	if u.GameHistory != nil {
		c.GameHistory = make([]GameEntry, len(u.GameHistory))
		for i, g := range u.GameHistory {
			c.GameHistory[i] = g
			if g.Data != nil {
				data := make(map[string]any, len(g.Data))
				for k, v := range g.Data {
					data[k] = v
				}
				c.GameHistory[i].Data = data
			}
		}
	}

	if u.Streak.LastActivity != nil {
		t := *u.Streak.LastActivity
		c.Streak.LastActivity = &t
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}

	return &c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
