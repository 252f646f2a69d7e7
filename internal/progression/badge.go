package progression

import (
	"time"

	"github.com/ecosphere/ecosphere/internal/user"
)

// Badge ids.
const (
	BadgeWelcome       = 1
	BadgeFirstStep     = 2
	BadgeRecycler      = 3
	BadgeEcoWarrior    = 4
	BadgeGreenGuardian = 5
	BadgeEnvMaster     = 6
	BadgeEcoGamer      = 7
)

// Progress is the set of counters badge rules are evaluated against.
type Progress struct {
	// HeldBadges is the number of badges held before the current pass.
	HeldBadges int

	// Classifications is the length of the waste classification history.
	Classifications int

	// GamePoints is the sum of points across the game history.
	GamePoints int
}

// ProgressOf extracts badge counters from a user record.
func ProgressOf(u *user.User) Progress {
	return Progress{
		HeldBadges:      len(u.Badges),
		Classifications: len(u.WasteClassifications),
		GamePoints:      u.GamePoints(),
	}
}

// Badge is a static badge definition.
type Badge struct {
	ID          int
	Name        string
	Description string

	// Points is the catalog display value. It is never credited to a balance.
	Points int

	// Extended marks milestones evaluated only when extended milestones are enabled.
	Extended bool

	unlocked func(p Progress) bool
}

// Unlocked reports whether the badge rule holds for p.
func (b Badge) Unlocked(p Progress) bool {
	return b.unlocked != nil && b.unlocked(p)
}

func classificationsEqual(n int) func(Progress) bool {
	return func(p Progress) bool { return p.Classifications == n }
}

// catalog is ordered by id; evaluation follows this order.
var catalog = []Badge{
	{
		ID: BadgeWelcome, Name: "Bem-vindo", Description: "Primeira ação na plataforma", Points: 10,
		unlocked: func(p Progress) bool { return p.HeldBadges == 0 },
	},
	{
		ID: BadgeFirstStep, Name: "Primeiro Passo", Description: "Primeira classificação de resíduo", Points: 25,
		unlocked: classificationsEqual(1),
	},
	{
		ID: BadgeRecycler, Name: "Reciclador", Description: "10 classificações corretas", Points: 50,
		unlocked: classificationsEqual(10),
	},
	{
		ID: BadgeEcoWarrior, Name: "Eco Warrior", Description: "50 classificações corretas", Points: 100,
		unlocked: classificationsEqual(50),
	},
	{
		ID: BadgeGreenGuardian, Name: "Guardião Verde", Description: "100 classificações corretas", Points: 200,
		Extended: true,
		unlocked: classificationsEqual(100),
	},
	{
		ID: BadgeEnvMaster, Name: "Mestre Ambiental", Description: "500 classificações corretas", Points: 500,
		Extended: true,
		unlocked: classificationsEqual(500),
	},
	{
		ID: BadgeEcoGamer, Name: "Gamer Ecológico", Description: "100 pontos em jogos", Points: 50,
		unlocked: func(p Progress) bool { return p.GamePoints >= 100 },
	},
}

// Catalog returns the badge definitions in id order.
func Catalog() []Badge {
	out := make([]Badge, len(catalog))
	copy(out, catalog)
	return out
}

// BadgeByID looks up a badge definition.
func BadgeByID(id int) (Badge, bool) {
	for _, b := range catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// BadgeIDByName resolves a badge id from its display name.
func BadgeIDByName(name string) (int, bool) {
	for _, b := range catalog {
		if b.Name == name {
			return b.ID, true
		}
	}
	return 0, false
}

// EvaluateBadges returns the badges u qualifies for but does not hold yet.
// All rules see the counters as they were before this pass, so the welcome
// badge fires only when u held no badge at all. u is not modified.
func EvaluateBadges(u *user.User, now time.Time, extended bool) []user.EarnedBadge {
	p := ProgressOf(u)

	var earned []user.EarnedBadge
	for _, b := range catalog {
		if b.Extended && !extended {
			continue
		}
		if u.HasBadge(b.ID) || !b.Unlocked(p) {
			continue
		}
		earned = append(earned, user.EarnedBadge{
			BadgeID:  b.ID,
			Name:     b.Name,
			EarnedAt: now,
		})
	}

	return earned
}

// GrantBadges appends badges to u, skipping any id it already holds.
// It returns the badges actually added.
func GrantBadges(u *user.User, badges ...user.EarnedBadge) []user.EarnedBadge {
	granted := make([]user.EarnedBadge, 0, len(badges))
	for _, b := range badges {
		if u.HasBadge(b.BadgeID) {
			continue
		}
		u.Badges = append(u.Badges, b)
		granted = append(granted, b)
	}
	return granted
}
