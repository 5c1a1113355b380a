package dsp

import "math"

// Bounds on the over/under-subtraction factors, matching the reference
// implementation's configurations.h constants.
const (
	AlphaMin = 1.0
	AlphaMax = 6.0
	BetaMin  = 0.0
	BetaMax  = 0.01

	LowerSNRdB  = 0.0
	HigherSNRdB = 20.0
)

// NoiseScalingType selects which criterion derives per-bin α/β from the
// current (reference, noise) pair, matching spec.md §6's
// noise_scaling_type parameter.
type NoiseScalingType int

const (
	GlobalSNRScaling NoiseScalingType = iota
	PerBandSNRScaling
	MaskingThresholdScaling
	NoScaling
)

// ScalingParameters bundles the inputs the three criteria need beyond the
// reference/noise spectra themselves.
type ScalingParameters struct {
	Oversubtraction  float64 // user alpha target at 0 dB SNR
	Undersubtraction float64 // user beta target at 0 dB SNR
	ScalingType      NoiseScalingType
}

// NoiseScalingCriteria evaluates one of the three scaling strategies into
// per-bin alpha/beta arrays.
type NoiseScalingCriteria struct {
	bands         *CriticalBands
	masking       *MaskingEstimator
	realBins      int
	cleanEstimate []float64
	thresholds    []float64
}

func NewNoiseScalingCriteria(bands *CriticalBands, masking *MaskingEstimator, realBins int) *NoiseScalingCriteria {
	return &NoiseScalingCriteria{
		bands:         bands,
		masking:       masking,
		realBins:      realBins,
		cleanEstimate: make([]float64, realBins),
		thresholds:    make([]float64, realBins),
	}
}

// interpolateSNR maps snrDB in [lowerBound, upperBound] linearly between
// (paramsIn) at <=LowerSNRdB and (paramsAtMax) at >=HigherSNRdB.
func interpolateSNR(snrDB, overIn, underIn, overMin, underMin float64) (alpha, beta float64) {
	switch {
	case snrDB <= LowerSNRdB:
		return overIn, underIn
	case snrDB >= HigherSNRdB:
		return overMin, underMin
	default:
		t := (snrDB - LowerSNRdB) / (HigherSNRdB - LowerSNRdB)
		alpha = overIn + t*(overMin-overIn)
		beta = underIn + t*(underMin-underIn)
		return alpha, beta
	}
}

func snrDBOf(signalPower, noisePower float64) float64 {
	if noisePower <= Epsilon {
		noisePower = Epsilon
	}
	ratio := FloorAt(signalPower, 0) / noisePower
	if ratio <= Epsilon {
		ratio = Epsilon
	}
	return FromCoefficientToDBPower(ratio)
}

// Apply computes alpha/beta per bin for the selected criterion.
func (c *NoiseScalingCriteria) Apply(reference, noise, alpha, beta []float64, params ScalingParameters) {
	switch params.ScalingType {
	case NoScaling:
		for k := 0; k < c.realBins; k++ {
			alpha[k] = params.Oversubtraction
			beta[k] = params.Undersubtraction
		}
	case PerBandSNRScaling:
		c.applyPerBand(reference, noise, alpha, beta, params)
	case MaskingThresholdScaling:
		c.applyMasking(reference, noise, alpha, beta, params)
	default:
		c.applyGlobal(reference, noise, alpha, beta, params)
	}
}

func (c *NoiseScalingCriteria) applyGlobal(reference, noise, alpha, beta []float64, params ScalingParameters) {
	var sigSum, noiseSum float64
	for k := 0; k < c.realBins; k++ {
		sigSum += reference[k]
		noiseSum += noise[k]
	}
	snr := snrDBOf(sigSum, noiseSum)
	a, b := interpolateSNR(snr, params.Oversubtraction, params.Undersubtraction, AlphaMin, BetaMin)
	for k := 0; k < c.realBins; k++ {
		alpha[k] = a
		beta[k] = b
	}
}

func (c *NoiseScalingCriteria) applyPerBand(reference, noise, alpha, beta []float64, params ScalingParameters) {
	for _, band := range c.bands.Bands {
		var sigSum, noiseSum float64
		for k := band.Start; k < band.End && k < c.realBins; k++ {
			sigSum += reference[k]
			noiseSum += noise[k]
		}
		snr := snrDBOf(sigSum, noiseSum)
		a, b := interpolateSNR(snr, params.Oversubtraction, params.Undersubtraction, AlphaMin, BetaMin)
		for k := band.Start; k < band.End && k < c.realBins; k++ {
			alpha[k] = a
			beta[k] = b
		}
	}
}

func (c *NoiseScalingCriteria) applyMasking(reference, noise, alpha, beta []float64, params ScalingParameters) {
	for k := 0; k < c.realBins; k++ {
		c.cleanEstimate[k] = math.Max(reference[k]-noise[k], 0)
	}
	c.masking.ComputeThresholds(c.thresholds, c.cleanEstimate)

	for k := 0; k < c.realBins; k++ {
		nmrDB := snrDBOf(noise[k], FloorAt(c.thresholds[k], Epsilon))
		switch {
		case nmrDB <= LowerSNRdB:
			alpha[k] = AlphaMin + (params.Oversubtraction-AlphaMin)*ElasticProtectionFactor
			beta[k] = BetaMin
		case nmrDB >= HigherSNRdB:
			alpha[k] = params.Oversubtraction
			beta[k] = params.Undersubtraction
		default:
			t := (nmrDB - LowerSNRdB) / (HigherSNRdB - LowerSNRdB)
			alpha[k] = AlphaMin + t*(params.Oversubtraction-AlphaMin)
			beta[k] = BetaMin + t*(params.Undersubtraction-BetaMin)
		}
	}
}
