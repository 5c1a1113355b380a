package dsp

import "math"

// GainEstimationType selects the gain rule applied per bin.
type GainEstimationType int

const (
	WienerGain GainEstimationType = iota
	GatesGain
	GeneralizedSpectralSubtractionGain
)

// DefaultGSSExponent is the generalized-spectral-subtraction exponent used
// when the caller does not override it: 2 selects power subtraction, 1
// magnitude subtraction, 0.5 spectral-amplitude subtraction.
const DefaultGSSExponent = 2.0

// EstimateGains computes gain[k] in [beta[k], 1] from reference (a power
// spectrum), noise, and the per-bin alpha/beta produced by a noise-scaling
// criterion.
func EstimateGains(realBins int, reference, noise, gain, alpha, beta []float64, t GainEstimationType, exponent float64) {
	if exponent <= 0 {
		exponent = DefaultGSSExponent
	}

	for k := 0; k < realBins; k++ {
		ref := FloorAt(reference[k], Epsilon)

		var g float64
		switch t {
		case GatesGain:
			if reference[k] > alpha[k]*noise[k] {
				g = 1
			} else {
				g = beta[k]
			}
		case GeneralizedSpectralSubtractionGain:
			refP := math.Pow(ref, exponent)
			noiseP := math.Pow(FloorAt(noise[k], 0), exponent)
			numerator := math.Max(0, refP-alpha[k]*noiseP)
			g = math.Pow(numerator/refP, 1/exponent)
		default: // WienerGain
			g = math.Max(0, (reference[k]-alpha[k]*noise[k])/ref)
		}

		gain[k] = Clamp(g, beta[k], 1)
	}
}
