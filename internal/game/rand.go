package game

import (
	"math/rand"
	"time"
)

// Rand is the source of randomness for round resolution. Tests substitute a
// scripted implementation to drive deterministic matches.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntBetween returns a uniform integer in [min, max] inclusive.
	IntBetween(min, max int) int
	// Shuffle randomizes the order of n elements via swap.
	Shuffle(n int, swap func(i, j int))
}

type systemRand struct {
	r *rand.Rand
}

// NewRand returns a time-seeded Rand. Each session gets its own; *rand.Rand
// is not safe for concurrent use.
func NewRand() Rand {
	return &systemRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *systemRand) Float64() float64 {
	return s.r.Float64()
}

func (s *systemRand) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.r.Intn(max-min+1)
}

func (s *systemRand) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}
