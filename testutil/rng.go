package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/canonify/distance"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0,1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UnitVector generates a single L2-normalized random vector.
func (r *RNG) UnitVector(dimensions int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unitVectorLocked(dimensions)
}

func (r *RNG) unitVectorLocked(dimensions int) []float32 {
	vec := make([]float32, dimensions)
	for j := range vec {
		vec[j] = float32(r.rand.NormFloat64())
	}
	distance.NormalizeL2InPlace(vec)
	return vec
}

// Jitter returns centroid plus Gaussian noise, normalized.
func (r *RNG) Jitter(centroid []float32, spread float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vec := make([]float32, len(centroid))
	for j := range vec {
		vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
	}
	distance.NormalizeL2InPlace(vec)
	return vec
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, s=1.5 gives a heavy tail.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// NoisyColumn generates rows values drawn from variant groups. Each group's first
// entry is its dominant spelling: it is picked half of the time, the other variants
// share the rest. Groups themselves are Zipf distributed. A row is nil with
// probability nullRate.
func (r *RNG) NoisyColumn(groups [][]string, rows int, nullRate float64) []*string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*string, rows)
	for i := range out {
		if r.rand.Float64() < nullRate {
			continue
		}
		g := groups[r.zipfLocked(len(groups), 1.0)]
		v := g[0]
		if len(g) > 1 && r.rand.Float64() >= 0.5 {
			v = g[1+r.rand.Intn(len(g)-1)]
		}
		out[i] = &v
	}
	return out
}
