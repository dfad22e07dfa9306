// Package recovery is the stochastic model behind a simulated deconstruction:
// how long each step takes and how much of each material comes out.
package recovery

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"wastetwin/internal/catalog"
)

const (
	// DefaultTotalSteps is the number of progress ticks per item.
	DefaultTotalSteps = 20
	// DefaultMaxStepDelay bounds wall-clock time for long categories.
	DefaultMaxStepDelay = 500 * time.Millisecond

	bulkMin   = 10.0
	bulkMax   = 100.0
	traceMin  = 0.001
	traceMax  = 0.05
	jitterMin = 0.8
	jitterMax = 1.2
	effMin    = 0.7
	effMax    = 0.95
)

// Options tunes a Simulator. Zero values fall back to the defaults, a zero
// Seed draws one from the clock and a negative MaxStepDelay disables sleeping.
type Options struct {
	Seed         int64
	TotalSteps   int
	MaxStepDelay time.Duration
}

// Simulator draws recovery outcomes. It is safe for concurrent use; all draws
// share one seeded source so a fixed seed with a serial workload reproduces
// the same numbers.
type Simulator struct {
	mu           sync.Mutex
	rng          *rand.Rand
	totalSteps   int
	maxStepDelay time.Duration
}

// NewSimulator builds a Simulator from opts.
func NewSimulator(opts Options) *Simulator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	steps := opts.TotalSteps
	if steps <= 0 {
		steps = DefaultTotalSteps
	}
	maxDelay := opts.MaxStepDelay
	switch {
	case maxDelay == 0:
		maxDelay = DefaultMaxStepDelay
	case maxDelay < 0:
		maxDelay = 0
	}
	return &Simulator{
		rng:          rand.New(rand.NewSource(seed)),
		totalSteps:   steps,
		maxStepDelay: maxDelay,
	}
}

// TotalSteps returns the number of progress steps per item.
func (s *Simulator) TotalSteps() int {
	return s.totalSteps
}

// StepDelay returns the sleep between steps: the nominal duration spread over
// the steps, capped at the configured maximum.
func (s *Simulator) StepDelay(spec catalog.CategorySpec) time.Duration {
	delay := spec.Duration() / time.Duration(s.totalSteps)
	if delay > s.maxStepDelay {
		return s.maxStepDelay
	}
	return delay
}

// Progress returns the percentage reached after step.
func (s *Simulator) Progress(step int) float64 {
	return float64(step) / float64(s.totalSteps) * 100
}

// Recover draws a recovered quantity for every material of spec, rounded to
// four decimals.
func (s *Simulator) Recover(spec catalog.CategorySpec) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]float64, len(spec.Materials))
	for _, material := range spec.Materials {
		var base float64
		if catalog.IsTrace(material) {
			base = s.uniformLocked(traceMin, traceMax)
		} else {
			base = s.uniformLocked(bulkMin, bulkMax)
		}
		jitter := s.uniformLocked(jitterMin, jitterMax)
		out[material] = Round4(base * spec.RecoveryRate * jitter)
	}
	return out
}

// Efficiency draws a recovery efficiency in [0.7, 0.95].
func (s *Simulator) Efficiency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uniformLocked(effMin, effMax)
}

// Intn returns a value in [0, n). Used for seeding demo workloads.
func (s *Simulator) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *Simulator) uniformLocked(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Round4 rounds v to four decimal places.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
