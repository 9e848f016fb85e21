package cable

import (
	"math"
	"math/rand/v2"
)

// Backoff computes a non-negative reconnect delay, in seconds,
// from a retry count (starting at 1).
type Backoff interface {
	Next(count int) float64
}

// jitter spreads a delay by a uniformly random factor in
// [-j, +j] of its own magnitude.
func jitter(d, j float64) float64 {
	return d + (rand.Float64()*2-1)*j*d
}

// ExponentialBackoff grows the delay by a constant factor
// per retry: factor^(count-1), spread by the jitter fraction.
type ExponentialBackoff struct {
	Factor float64
	Jitter float64
}

func (b ExponentialBackoff) Next(count int) float64 {
	return jitter(math.Pow(b.Factor, float64(count-1)), b.Jitter)
}

// LinearBackoff grows the delay linearly: factor*count,
// spread by the jitter fraction.
type LinearBackoff struct {
	Factor float64
	Jitter float64
}

func (b LinearBackoff) Next(count int) float64 {
	return jitter(b.Factor*float64(count), b.Jitter)
}

// RandomBackoff picks a uniformly random delay in [Min, Max],
// spread by the jitter fraction.
type RandomBackoff struct {
	Min    float64
	Max    float64
	Jitter float64
}

func (b RandomBackoff) Next(_ int) float64 {
	return jitter(b.Min+rand.Float64()*(b.Max-b.Min), b.Jitter)
}

// ConstBackoff always returns the same delay.
type ConstBackoff struct {
	Delay float64
}

func (b ConstBackoff) Next(_ int) float64 {
	return b.Delay
}
