package progression

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAction is returned for an unrecognized action kind.
var ErrInvalidAction = errors.New("invalid action")

// Kind identifies an action type on the wire.
type Kind string

// Action kinds.
const (
	KindWasteClassification Kind = "waste_classification"
	KindQuiz                Kind = "quiz"
	KindEcoCatcher          Kind = "eco_catcher"
	KindManual              Kind = "manual"
)

// ParseKind validates a wire action type.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindWasteClassification, KindQuiz, KindEcoCatcher, KindManual:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidAction, s)
}

// Action is a recorded user event. The set of implementations is closed.
type Action interface {
	Kind() Kind
	award() int
}

// WasteClassification is a classified waste disposal.
type WasteClassification struct {
	Points     int
	WasteType  string
	Confidence float64
}

// Quiz is a completed quiz.
type Quiz struct {
	Points int
	Data   map[string]any
}

// EcoCatcher is a completed round of the Eco Catcher mini-game.
type EcoCatcher struct {
	Points int
	Data   map[string]any
}

// Manual is a points-only grant with no history entry.
type Manual struct {
	Points int
	Reason string
}

func (WasteClassification) Kind() Kind { return KindWasteClassification }
func (Quiz) Kind() Kind                { return KindQuiz }
func (EcoCatcher) Kind() Kind          { return KindEcoCatcher }
func (Manual) Kind() Kind              { return KindManual }

func (a WasteClassification) award() int { return a.Points }
func (a Quiz) award() int                { return a.Points }
func (a EcoCatcher) award() int          { return a.Points }
func (a Manual) award() int              { return a.Points }

// ParseAction builds an Action from loosely typed wire input.
// points is coerced with CoercePoints; data carries kind-specific fields.
func ParseAction(kind string, points any, data map[string]any) (Action, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	p := CoercePoints(points)

	switch k {
	case KindWasteClassification:
		return WasteClassification{
			Points:     p,
			WasteType:  stringField(data, "wasteType"),
			Confidence: floatField(data, "confidence"),
		}, nil
	case KindQuiz:
		return Quiz{Points: p, Data: data}, nil
	case KindEcoCatcher:
		return EcoCatcher{Points: p, Data: data}, nil
	case KindManual:
		return Manual{Points: p, Reason: stringField(data, "reason")}, nil
	}

	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, kind)
}

// CoercePoints converts a wire point value to a non-negative integer.
// Non-numeric, non-finite and negative values become zero; fractions are truncated.
func CoercePoints(v any) int {
	var f float64

	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func floatField(data map[string]any, key string) float64 {
	switch n := data[key].(type) {
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
