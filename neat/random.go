package neat

import "math/rand"

// Rand is the random source every mutation and selection operator draws
// from. *rand.Rand satisfies it; tests inject seeded or scripted sources.
type Rand interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// NormFloat64 returns a standard normal value.
	NormFloat64() float64
	// Intn returns a uniform int in [0, n). n must be positive.
	Intn(n int) int
}

// NewRand returns a seeded source. Runs with different seeds follow
// different evolutionary trajectories; the same seed replays one exactly.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
