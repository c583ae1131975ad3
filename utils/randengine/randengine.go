// Package randengine wraps golang.org/x/exp/rand with the small set of
// distributions the simulation actually draws from: discrete weighted
// choice (personality draws), Bernoulli trials (truck-or-car draws), and
// mutex-guarded variants safe for concurrent callers.
package randengine

import (
	"flag"
	"log"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "offset added to every engine's seed, for reproducing a run with a deliberate shift")
)

// Engine is a random number source with a few convenience distributions
// layered on top of rand.Rand. The embedded *rand.Rand methods are not
// safe for concurrent use; the *Safe methods take mtx and are.
type Engine struct {
	*rand.Rand
	mtx sync.Mutex
}

// New creates an Engine seeded from seed plus the process-wide seed offset
// flag, so a batch of runs can be shifted together without touching the
// per-call seeds.
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// DiscreteDistribution draws an index in [0, len(weight)) with probability
// proportional to weight[i]. Not safe for concurrent use.
func (e *Engine) DiscreteDistribution(weight []float64) int32 {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return int32(i)
		}
	}
	log.Panicf("randengine: DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}

// PTrue returns true with probability p. Not safe for concurrent use.
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// PTrueSafe is the concurrency-safe version of PTrue.
func (e *Engine) PTrueSafe(p float64) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64() < p
}

// IntnSafe is the concurrency-safe version of Intn.
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// Float64Safe is the concurrency-safe version of Float64.
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}

// DiscreteDistributionSafe is the concurrency-safe version of
// DiscreteDistribution. Unlike DiscreteDistribution it tolerates a weight
// slice that sums to less than the drawn random value by returning
// len(weight) rather than panicking, which callers use as a "none of the
// above" sentinel (e.g. the Normal personality, implicit when no ratio
// bucket claims the draw).
func (e *Engine) DiscreteDistributionSafe(weight []float64) int32 {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64Safe()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return int32(i)
		}
	}
	return int32(len(weight))
}
