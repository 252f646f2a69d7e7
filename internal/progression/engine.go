package progression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/user"
)

// ErrInsufficientPoints is returned when a redemption costs more than the balance.
var ErrInsufficientPoints = errors.New("insufficient points")

// rankingCacheKey holds the top MaxRankingLimit entries.
const rankingCacheKey = "ranking:top"

// Store is the user persistence the engine needs.
type Store interface {
	Get(ctx context.Context, id string) (*user.User, error)
	Update(ctx context.Context, u *user.User) error
	List(ctx context.Context) ([]*user.User, error)
}

// RankingCache stores serialized rankings. Implementations may drop writes.
type RankingCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock returns the current time.
type Clock func() time.Time

// EngineConfig holds configuration for the progression engine.
type EngineConfig struct {
	// Store is the user store.
	Store Store

	// Clock stamps history entries and badges (default: time.Now).
	Clock Clock

	// Logger for engine operations.
	Logger zerolog.Logger

	// Cache holds the ranking between writes. Optional.
	Cache RankingCache

	// RankingTTL bounds how long a cached ranking is served (default: 30 seconds).
	RankingTTL time.Duration

	// EvaluateExtendedMilestones enables the 100 and 500 classification badges.
	EvaluateExtendedMilestones bool

	// Metrics records engine counters. Optional.
	Metrics *Metrics
}

// Outcome is the result of applying an action or redemption to a user.
type Outcome struct {
	EcoPoints    int
	Level        Level
	LevelChanged bool
	NewBadges    []user.EarnedBadge

	// PointsAwarded is the delta applied; negative for redemptions.
	PointsAwarded int
}

// Engine records actions against user records.
//
// Each call reads the user, mutates it in memory and writes it back without
// locking. Concurrent calls for the same user race and the last write wins.
// Neither the HTTP handlers nor the Pub/Sub worker serialize calls per user,
// so concurrent actions for one user can lose an award.
type Engine struct {
	store      Store
	clock      Clock
	logger     zerolog.Logger
	cache      RankingCache
	rankingTTL time.Duration
	extended   bool
	metrics    *Metrics
}

// NewEngine creates a new progression engine.
func NewEngine(cfg EngineConfig) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	rankingTTL := cfg.RankingTTL
	if rankingTTL == 0 {
		rankingTTL = 30 * time.Second
	}

	return &Engine{
		store:      cfg.Store,
		clock:      clock,
		logger:     cfg.Logger,
		cache:      cfg.Cache,
		rankingTTL: rankingTTL,
		extended:   cfg.EvaluateExtendedMilestones,
		metrics:    cfg.Metrics,
	}
}

// Record applies an action to the user and returns the resulting state.
func (e *Engine) Record(ctx context.Context, userID string, action Action) (*Outcome, error) {
	if action == nil {
		return nil, fmt.Errorf("%w: missing action", ErrInvalidAction)
	}

	u, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	now := e.clock()
	points := max(action.award(), 0)

	switch a := action.(type) {
	case WasteClassification:
		u.WasteClassifications = append(u.WasteClassifications, user.WasteClassification{
			Type:       a.WasteType,
			Confidence: a.Confidence,
			Points:     points,
			Date:       now,
		})
	case Quiz:
		u.GameHistory = append(u.GameHistory, user.GameEntry{
			GameType: string(KindQuiz),
			Points:   points,
			Date:     now,
			Data:     a.Data,
		})
	case EcoCatcher:
		u.GameHistory = append(u.GameHistory, user.GameEntry{
			GameType: string(KindEcoCatcher),
			Points:   points,
			Date:     now,
			Data:     a.Data,
		})
	case Manual:
		// points only
	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidAction, action.Kind())
	}

	oldLevel := LevelFor(u.EcoPoints)
	u.EcoPoints = addPoints(u.EcoPoints, points)
	level := LevelFor(u.EcoPoints)
	u.Level = string(level)

	newBadges := GrantBadges(u, EvaluateBadges(u, now, e.extended)...)
	u.UpdatedAt = now

	if err := e.store.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	e.invalidateRanking(ctx)

	outcome := &Outcome{
		EcoPoints:     u.EcoPoints,
		Level:         level,
		LevelChanged:  level != oldLevel,
		NewBadges:     newBadges,
		PointsAwarded: points,
	}

	e.metrics.recordAction(ctx, action.Kind(), outcome)

	e.logger.Debug().
		Str("user_id", userID).
		Str("kind", string(action.Kind())).
		Int("points", points).
		Int("eco_points", u.EcoPoints).
		Msg("action recorded")
	if outcome.LevelChanged {
		e.logger.Info().
			Str("user_id", userID).
			Str("from", string(oldLevel)).
			Str("to", string(level)).
			Msg("level changed")
	}
	for _, b := range newBadges {
		e.logger.Info().
			Str("user_id", userID).
			Int("badge_id", b.BadgeID).
			Str("badge", b.Name).
			Msg("badge granted")
	}

	return outcome, nil
}

// Redeem spends EcoPoints on a reward. The level is recomputed and may drop;
// badges are not evaluated.
func (e *Engine) Redeem(ctx context.Context, userID string, r user.Redemption) (*Outcome, error) {
	if r.Points < 0 {
		return nil, fmt.Errorf("%w: negative cost", ErrInvalidAction)
	}

	u, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if u.EcoPoints < r.Points {
		return nil, fmt.Errorf("%w: balance %d, cost %d", ErrInsufficientPoints, u.EcoPoints, r.Points)
	}

	now := e.clock()
	oldLevel := LevelFor(u.EcoPoints)

	r.Date = now
	u.Redemptions = append(u.Redemptions, r)
	u.EcoPoints -= r.Points
	level := LevelFor(u.EcoPoints)
	u.Level = string(level)
	u.UpdatedAt = now

	if err := e.store.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	e.invalidateRanking(ctx)

	outcome := &Outcome{
		EcoPoints:     u.EcoPoints,
		Level:         level,
		LevelChanged:  level != oldLevel,
		NewBadges:     []user.EarnedBadge{},
		PointsAwarded: -r.Points,
	}
	e.metrics.recordRedemption(ctx, outcome)

	e.logger.Info().
		Str("user_id", userID).
		Int("reward_id", r.RewardID).
		Int("cost", r.Points).
		Int("eco_points", u.EcoPoints).
		Msg("reward redeemed")

	return outcome, nil
}

// Summary is a user's progression state.
type Summary struct {
	EcoPoints            int
	Level                Level
	Badges               []user.EarnedBadge
	Streak               user.Streak
	TotalClassifications int
	CompletedMissions    int
}

// Summary returns the progression state for a user.
func (e *Engine) Summary(ctx context.Context, userID string) (*Summary, error) {
	u, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		EcoPoints:            u.EcoPoints,
		Level:                LevelFor(u.EcoPoints),
		Badges:               u.Badges,
		Streak:               u.Streak,
		TotalClassifications: len(u.WasteClassifications),
	}, nil
}

// BadgeStatus is a catalog badge annotated with the user's progress.
type BadgeStatus struct {
	Badge
	Earned   bool
	EarnedAt *time.Time
}

// Badges returns the full badge catalog with the user's earned flags.
func (e *Engine) Badges(ctx context.Context, userID string) ([]BadgeStatus, error) {
	u, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned := make(map[int]time.Time, len(u.Badges))
	for _, b := range u.Badges {
		earned[b.BadgeID] = b.EarnedAt
	}

	statuses := make([]BadgeStatus, 0, len(catalog))
	for _, b := range catalog {
		status := BadgeStatus{Badge: b}
		if at, ok := earned[b.ID]; ok {
			status.Earned = true
			status.EarnedAt = &at
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// Ranking returns the top users by EcoPoints, flagging currentUserID.
func (e *Engine) Ranking(ctx context.Context, currentUserID string, limit int) ([]RankingEntry, error) {
	limit = ClampLimit(limit)

	top, err := e.topEntries(ctx)
	if err != nil {
		return nil, err
	}

	if len(top) > limit {
		top = top[:limit]
	}
	for i := range top {
		top[i].IsCurrentUser = top[i].UserID == currentUserID
	}

	return top, nil
}

func (e *Engine) topEntries(ctx context.Context) ([]RankingEntry, error) {
	if e.cache != nil {
		if data, _ := e.cache.Get(ctx, rankingCacheKey); data != nil {
			var cached []RankingEntry
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			e.logger.Warn().Msg("discarding unreadable cached ranking")
		}
	}

	users, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	entries := Rank(users, "", MaxRankingLimit)

	if e.cache != nil {
		if data, err := json.Marshal(entries); err == nil {
			_ = e.cache.Set(ctx, rankingCacheKey, data, e.rankingTTL)
		}
	}

	return entries, nil
}

// addPoints credits points to a balance, saturating at math.MaxInt.
func addPoints(balance, points int) int {
	balance = max(balance, 0)
	if points > math.MaxInt-balance {
		return math.MaxInt
	}
	return balance + points
}

// InvalidateRanking drops the cached ranking.
func (e *Engine) InvalidateRanking(ctx context.Context) {
	e.invalidateRanking(ctx)
}

func (e *Engine) invalidateRanking(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, rankingCacheKey); err != nil {
		e.logger.Warn().Err(err).Msg("failed to invalidate ranking cache")
	}
}
