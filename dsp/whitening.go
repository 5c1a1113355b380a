package dsp

import "math"

// SpectralWhitening computes per-bin whitening weights that fill spectral
// valleys in the noise profile (boosting bins with a deep noise floor
// relative to the loudest noise bin) while tapering the effect off at the
// high end with the right half of a Hamming window, so whitening cannot
// brighten the top of the spectrum.
type SpectralWhitening struct {
	realBins       int
	tapering       []float64
	whiteningPower []float64
}

func NewSpectralWhitening(realBins int) *SpectralWhitening {
	w := &SpectralWhitening{
		realBins:       realBins,
		tapering:       make([]float64, realBins),
		whiteningPower: make([]float64, realBins),
	}
	n := 2*realBins - 1
	for k := 0; k < realBins; k++ {
		idx := k + realBins - 1
		w.tapering[k] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(idx)/float64(n-1))
	}
	return w
}

// GetWeights writes the whitening weight for every bin into dst, given a
// whitening exponent in [0,1] and the current noise profile.
func (w *SpectralWhitening) GetWeights(dst []float64, whiteningFactor float64, noiseProfile []float64) {
	noisePeak := Epsilon
	for k := 0; k < w.realBins; k++ {
		if noiseProfile[k] > noisePeak {
			noisePeak = noiseProfile[k]
		}
	}

	for k := 0; k < w.realBins; k++ {
		weight := 1.0
		if whiteningFactor > 0 && noiseProfile[k] > Epsilon {
			weight = math.Pow(noisePeak/noiseProfile[k], whiteningFactor)
		}
		dst[k] = weight * w.tapering[k]
	}
}

// NoiseFloorManager mixes a whitened noise-derived floor into the gain
// map, then mirrors the result across the full FFT length.
type NoiseFloorManager struct {
	whitening *SpectralWhitening
	weights   []float64
	realBins  int
	fftSize   int
}

func NewNoiseFloorManager(fftSize int) *NoiseFloorManager {
	realBins := fftSize/2 + 1
	return &NoiseFloorManager{
		whitening: NewSpectralWhitening(realBins),
		weights:   make([]float64, realBins),
		realBins:  realBins,
		fftSize:   fftSize,
	}
}

// Apply blends a whitened noise floor into gain (length fftSize; only the
// first realBins entries are read as input, the mirror is written as
// output) using reductionAmount as the base floor strength and
// whiteningFactor as the whitening exponent.
func (m *NoiseFloorManager) Apply(gain, noiseProfile []float64, reductionAmount, whiteningFactor float64) {
	m.whitening.GetWeights(m.weights, whiteningFactor, noiseProfile)

	for k := 0; k < m.realBins; k++ {
		floor := math.Min(reductionAmount*m.weights[k], 1)
		gain[k] = floor + (1-floor)*gain[k]
	}

	for k := 1; k < m.fftSize-k; k++ {
		gain[m.fftSize-k] = gain[k]
	}
}
