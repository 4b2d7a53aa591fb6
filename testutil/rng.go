package testutil

import (
	"math/rand"
	"sync"
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

// Keys returns n distinct ints in [0, 4n), in random order.
func (r *RNG) Keys(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	perm := r.rand.Perm(4 * n)
	return perm[:n]
}

// Sample returns the items selected with probability p each, keeping order.
func (r *RNG) Sample(items []int, p float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, 0, int(float64(len(items))*p)+1)
	for _, it := range items {
		if r.rand.Float64() < p {
			out = append(out, it)
		}
	}
	return out
}
