package store

import (
	"math"
	"math/rand/v2"
)

const (
	// meanReversion pulls each step this fraction of the way back to nominal.
	meanReversion = 0.05

	// noiseScale is the peak-to-peak jitter as a fraction of nominal.
	noiseScale = 0.04

	// envelopeMargin widens the clamp beyond the alert thresholds by this
	// fraction of the calibration range on each side.
	envelopeMargin = 0.15
)

// Envelope returns the soft clamp bounds for a sensor's simulated values.
func Envelope(s Sensor) (lower, upper float64) {
	margin := s.Range() * envelopeMargin
	return s.Minimum - margin, s.Maximum + margin
}

// Perturb computes the next value of a damped random walk starting at baseline.
//
// The step is a mean-reverting drift toward nominal plus uniform noise
// proportional to nominal. The result is rounded to two decimals and then
// clamped to [Envelope], so it never leaves the envelope even when a bound
// itself has more than two decimals.
func Perturb(s Sensor, baseline float64, rng *rand.Rand) float64 {
	drift := (s.Nominal - baseline) * meanReversion
	noise := (rng.Float64() - 0.5) * s.Nominal * noiseScale

	adjusted := round2(baseline + drift + noise)

	lower, upper := Envelope(s)
	return math.Min(math.Max(adjusted, lower), upper)
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
