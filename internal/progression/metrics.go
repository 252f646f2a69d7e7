package progression

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ecosphere/ecosphere/internal/progression"

// Metrics holds the engine's OpenTelemetry instruments.
type Metrics struct {
	pointsAwarded metric.Int64Counter
	badgesGranted metric.Int64Counter
	levelChanges  metric.Int64Counter
}

// NewMetrics creates engine instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	pointsAwarded, err := meter.Int64Counter(
		"ecosphere.points.awarded",
		metric.WithDescription("EcoPoints credited by recorded actions"),
		metric.WithUnit("{point}"),
	)
	if err != nil {
		return nil, err
	}

	badgesGranted, err := meter.Int64Counter(
		"ecosphere.badges.granted",
		metric.WithDescription("Badges granted to users"),
		metric.WithUnit("{badge}"),
	)
	if err != nil {
		return nil, err
	}

	levelChanges, err := meter.Int64Counter(
		"ecosphere.level.changes",
		metric.WithDescription("Level tier changes, promotions and demotions"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		pointsAwarded: pointsAwarded,
		badgesGranted: badgesGranted,
		levelChanges:  levelChanges,
	}, nil
}

func (m *Metrics) recordAction(ctx context.Context, kind Kind, o *Outcome) {
	if m == nil {
		return
	}

	kindAttr := metric.WithAttributes(attribute.String("action.kind", string(kind)))
	m.pointsAwarded.Add(ctx, int64(o.PointsAwarded), kindAttr)

	for _, b := range o.NewBadges {
		m.badgesGranted.Add(ctx, 1, metric.WithAttributes(attribute.Int("badge.id", b.BadgeID)))
	}

	if o.LevelChanged {
		m.levelChanges.Add(ctx, 1, metric.WithAttributes(
			attribute.String("level", string(o.Level)),
			attribute.String("direction", "up"),
		))
	}
}

func (m *Metrics) recordRedemption(ctx context.Context, o *Outcome) {
	if m == nil || !o.LevelChanged {
		return
	}
	m.levelChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("level", string(o.Level)),
		attribute.String("direction", "down"),
	))
}
