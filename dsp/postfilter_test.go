package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPostFilterAdaptiveWindowDoesNotPanic exercises the n>1 smoothing path:
// gain at fftSize length (larger than realBins, as denoiser/core.go
// allocates it) with a low a-posteriori SNR so adaptiveWindowSize returns a
// window wider than one bin. The real regression here was an index out of
// range panic when movingAverage ran over the full fftSize-length gain
// slice against the realBins-length intermediate scratch buffer.
func TestPostFilterAdaptiveWindowDoesNotPanic(t *testing.T) {
	realBins := 64
	fftSize := 128 // mirrors the denoiser's gain allocation, fftSize > realBins

	p := NewPostFilter(realBins)

	spectrum := make([]float64, fftSize)
	gain := make([]float64, fftSize)
	for k := range gain {
		gain[k] = 1
	}
	for k := 0; k < realBins; k++ {
		spectrum[k] = 1
		gain[k] = 0.1 // heavy reduction -> low zeta -> adaptive window > 1
	}

	assert.NotPanics(t, func() {
		p.Apply(spectrum, gain, PostFilterParameters{
			SNRThreshold: 100,
			GainFloor:    0.05,
		})
	})

	for k := 0; k < realBins; k++ {
		assert.GreaterOrEqual(t, gain[k], 0.05)
		assert.LessOrEqual(t, gain[k], 1.0)
	}
}

func TestPostFilterAdaptiveWindowSizeWidensAsSNRFalls(t *testing.T) {
	p := NewPostFilter(4)
	spectrum := []float64{1, 1, 1, 1}

	highSNRGain := []float64{1, 1, 1, 1}
	n := p.adaptiveWindowSize(spectrum, highSNRGain, 100)
	assert.Equal(t, 1, n)

	lowSNRGain := []float64{0.01, 0.01, 0.01, 0.01}
	n = p.adaptiveWindowSize(spectrum, lowSNRGain, 100)
	assert.Greater(t, n, 1)
}

// TestPostFilterPreserveMinimumNeverRaisesGain confirms the smoothed gain
// can only pull values down toward the moving average, never up, when
// preserveMinimum (the default) is set.
func TestPostFilterPreserveMinimumNeverRaisesGain(t *testing.T) {
	realBins := 8
	p := NewPostFilter(realBins)

	spectrum := make([]float64, realBins)
	gain := make([]float64, realBins)
	for k := range spectrum {
		spectrum[k] = 1
		gain[k] = 1
	}
	// A single deep notch surrounded by unity gain: the moving average will
	// pull neighboring bins down, never up, when preserveMinimum applies.
	gain[realBins/2] = 0.01

	before := append([]float64(nil), gain...)

	p.Apply(spectrum, gain, PostFilterParameters{SNRThreshold: 100, GainFloor: 0})

	for k := range gain {
		assert.LessOrEqual(t, gain[k], before[k]+1e-9)
	}
}

// TestPostFilterGainFloorClamp confirms the final clamp always lower-bounds
// gain at params.GainFloor regardless of the smoothing path taken.
func TestPostFilterGainFloorClamp(t *testing.T) {
	realBins := 4
	p := NewPostFilter(realBins)

	spectrum := []float64{1, 1, 1, 1}
	gain := []float64{0.0, 0.0, 0.0, 0.0}

	p.Apply(spectrum, gain, PostFilterParameters{SNRThreshold: 100, GainFloor: 0.2})

	for _, g := range gain {
		assert.GreaterOrEqual(t, g, 0.2)
	}
}
