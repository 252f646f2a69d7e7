package classifier

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
)

// Simulated picks a random waste type. It stands in for the remote
// service when none is configured or it is unreachable.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated classifier. A nil source uses a random seed.
func NewSimulated(src rand.Source) *Simulated {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Simulated{rng: rand.New(src)}
}

// Classify returns a confidence in [0.85, 0.95) and points in [50, 99].
func (s *Simulated) Classify(_ context.Context, img Image) (*Result, error) {
	if len(img.Data) == 0 {
		return nil, ErrNoImage
	}

	s.mu.Lock()
	wasteType := wasteTypes[s.rng.IntN(len(wasteTypes))]
	confidence := 0.85 + s.rng.Float64()*0.1
	points := 50 + s.rng.IntN(50)
	s.mu.Unlock()

	return &Result{
		Type:       wasteType,
		Confidence: confidence,
		Points:     points,
		Tips:       TipFor(wasteType),
		Locations:  slices.Clone(DropOffLocations),
	}, nil
}

var _ Classifier = (*Simulated)(nil)
