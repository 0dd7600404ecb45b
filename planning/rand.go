package planning

// =============================================================================
// RAND - Seedable 32-bit generator (mulberry32)
// =============================================================================

// Rand is a fast, seedable pseudo-random generator with explicit state.
// It drives every non-deterministic-looking choice the distributor makes:
// week/day shuffle order, the biased week-count draw and the 20-80%
// fractional fills. Given the same seed, the sequence is bit-for-bit
// reproducible, which is what makes "reroll with a new seed" and "same
// seed, same schedule" testable behaviors.
//
// Not cryptographically secure, and not meant to be.
type Rand struct {
	state uint32
}

// NewRand creates a generator from a seed. The seed is truncated to the
// 32-bit state the mixing function operates on.
func NewRand(seed int64) *Rand {
	return &Rand{state: uint32(seed)}
}

// Next returns the next value in [0, 1).
func (r *Rand) Next() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// IntN returns a value in [0, n). n must be > 0.
func (r *Rand) IntN(n int) int {
	return int(r.Next() * float64(n))
}

// Shuffle performs a Fisher-Yates shuffle over n elements.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		swap(i, j)
	}
}
