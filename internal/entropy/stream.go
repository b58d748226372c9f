// Package entropy provides the randomness used by arena runs: a per-run
// deterministic stream for everything that must replay bit-for-bit, and a
// crypto-backed draw for picking a seed when the caller omits one.
package entropy

import (
	"math/rand"
)

// Stream is a seeded random stream owned by exactly one run. Draws happen in
// a fixed canonical order (wallet derivation, run id, then one bribe roll per
// eligible round), so two runs with the same seed consume identical values.
// Not safe for concurrent use; each run owns a private Stream.
type Stream struct {
	rng *rand.Rand
}

// NewStream creates a deterministic stream from a seed.
func NewStream(seed int64) *Stream {
	return &Stream{rng: rand.New(rand.NewSource(seed))}
}

// Float returns the next float64 in [0, 1).
func (s *Stream) Float() float64 {
	return s.rng.Float64()
}

// Intn returns the next int in [0, n).
func (s *Stream) Intn(n int) int {
	return s.rng.Intn(n)
}
