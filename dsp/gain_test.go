package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestGainBoundsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		realBins := rapid.IntRange(2, 64).Draw(rt, "realBins")
		reference := make([]float64, realBins)
		noise := make([]float64, realBins)
		alpha := make([]float64, realBins)
		beta := make([]float64, realBins)
		gain := make([]float64, realBins)

		for k := 0; k < realBins; k++ {
			reference[k] = rapid.Float64Range(0, 10).Draw(rt, "ref")
			noise[k] = rapid.Float64Range(0, 10).Draw(rt, "noise")
			alpha[k] = rapid.Float64Range(AlphaMin, AlphaMax).Draw(rt, "alpha")
			beta[k] = rapid.Float64Range(BetaMin, BetaMax).Draw(rt, "beta")
		}

		for _, gt := range []GainEstimationType{WienerGain, GatesGain, GeneralizedSpectralSubtractionGain} {
			EstimateGains(realBins, reference, noise, gain, alpha, beta, gt, DefaultGSSExponent)
			for k := 0; k < realBins; k++ {
				assert.GreaterOrEqual(rt, gain[k], 0.0)
				assert.LessOrEqual(rt, gain[k], 1.0)
			}
		}
	})
}

func TestGatesGainHardSwitch(t *testing.T) {
	realBins := 4
	reference := []float64{10, 1, 10, 1}
	noise := []float64{1, 1, 1, 1}
	alpha := []float64{2, 2, 2, 2}
	beta := []float64{0.1, 0.1, 0.1, 0.1}
	gain := make([]float64, realBins)

	EstimateGains(realBins, reference, noise, gain, alpha, beta, GatesGain, 0)

	assert.Equal(t, 1.0, gain[0])
	assert.Equal(t, 0.1, gain[1])
	assert.Equal(t, 1.0, gain[2])
	assert.Equal(t, 0.1, gain[3])
}
