// Package progression implements the EcoPoints engine: recording actions,
// updating balances, resolving level tiers, evaluating badges and ranking users.
package progression

// Level is a named progression tier derived from a point total.
type Level string

// Level tiers, lowest first.
const (
	LevelIniciante           Level = "Iniciante"
	LevelInicianteConsciente Level = "Iniciante Consciente"
	LevelReciclador          Level = "Reciclador"
	LevelEcoWarrior          Level = "Eco Warrior"
	LevelGuardiaoVerde       Level = "Guardião Verde"
	LevelMestreAmbiental     Level = "Mestre Ambiental"
)

// tier pairs an inclusive lower bound with its level.
type tier struct {
	min   int
	level Level
}

// tiers is ordered highest threshold first; the first match wins.
var tiers = []tier{
	{min: 2000, level: LevelMestreAmbiental},
	{min: 1000, level: LevelGuardiaoVerde},
	{min: 500, level: LevelEcoWarrior},
	{min: 200, level: LevelReciclador},
	{min: 50, level: LevelInicianteConsciente},
	{min: 0, level: LevelIniciante},
}

// LevelFor returns the tier for the given point total.
// Negative totals resolve to the lowest tier.
func LevelFor(points int) Level {
	for _, t := range tiers {
		if points >= t.min {
			return t.level
		}
	}
	return LevelIniciante
}

// LevelName is LevelFor as a plain string, for storage adapters.
func LevelName(points int) string {
	return string(LevelFor(points))
}

// Threshold returns the minimum point total for the level, or -1 if unknown.
func (l Level) Threshold() int {
	for _, t := range tiers {
		if t.level == l {
			return t.min
		}
	}
	return -1
}

// Rank returns the tier position, 0 for the lowest tier, or -1 if unknown.
func (l Level) Rank() int {
	for i, t := range tiers {
		if t.level == l {
			return len(tiers) - 1 - i
		}
	}
	return -1
}

// Next returns the following tier and whether one exists.
func (l Level) Next() (Level, bool) {
	for i, t := range tiers {
		if t.level == l {
			if i == 0 {
				return "", false
			}
			return tiers[i-1].level, true
		}
	}
	return "", false
}

// Levels returns all tiers, lowest first.
func Levels() []Level {
	out := make([]Level, 0, len(tiers))
	for i := len(tiers) - 1; i >= 0; i-- {
		out = append(out, tiers[i].level)
	}
	return out
}

func (l Level) String() string {
	return string(l)
}
