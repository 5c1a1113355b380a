package dsp

import "math"

// SpectrumType selects which scalar feature is extracted per bin from the
// packed half-spectrum.
type SpectrumType int

const (
	PowerSpectrum SpectrumType = iota
	MagnitudeSpectrum
	PhaseSpectrum
)

// Features extracts power, magnitude and phase spectra from a packed
// half-complex buffer of length fftSize, writing real_bins = fftSize/2+1
// values per call. It owns no buffers of its own beyond scratch space, so
// callers supply the destination slice.
type Features struct {
	fftSize  int
	realBins int
}

func NewFeatures(fftSize int) *Features {
	return &Features{fftSize: fftSize, realBins: fftSize/2 + 1}
}

func (f *Features) RealBins() int { return f.realBins }

func (f *Features) realImag(packed []float64, k int) (re, im float64) {
	n := f.fftSize
	if k == 0 || k == n/2 {
		return packed[k], 0
	}
	return packed[k], packed[n-k]
}

// Power writes |X[k]|^2 for k in [0, realBins) into dst.
func (f *Features) Power(dst, packed []float64) {
	for k := 0; k < f.realBins; k++ {
		re, im := f.realImag(packed, k)
		dst[k] = re*re + im*im
	}
}

// Magnitude writes |X[k]| for k in [0, realBins) into dst.
func (f *Features) Magnitude(dst, packed []float64) {
	for k := 0; k < f.realBins; k++ {
		re, im := f.realImag(packed, k)
		dst[k] = math.Sqrt(re*re + im*im)
	}
}

// Phase writes atan2(im, re) for k in [0, realBins) into dst.
func (f *Features) Phase(dst, packed []float64) {
	for k := 0; k < f.realBins; k++ {
		re, im := f.realImag(packed, k)
		dst[k] = math.Atan2(im, re)
	}
}

// Extract writes the requested feature into dst.
func (f *Features) Extract(dst, packed []float64, t SpectrumType) {
	switch t {
	case MagnitudeSpectrum:
		f.Magnitude(dst, packed)
	case PhaseSpectrum:
		f.Phase(dst, packed)
	default:
		f.Power(dst, packed)
	}
}
