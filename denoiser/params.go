// Package denoiser implements the three top-level processors (Manual,
// Adaptive, 2-D NLM) that orchestrate the dsp and noise packages into a
// complete real-time noise-reduction engine, per spec.md §4.12.
package denoiser

import (
	"specgate/dsp"
	"specgate/noise"
)

// Parameters mirrors spec.md §6's recognized parameter struct. Fields
// that the spec documents as dB ranges are stored here already converted
// to the internal linear domain the gain pipeline consumes directly —
// matching the reference implementation, which receives these as plain
// floats used verbatim as alpha/beta/floor inputs. Use the
// *FromDB helpers to perform that conversion at the UI boundary (the CLI
// driver does this).
type Parameters struct {
	ResidualListen        bool
	LearnNoise            bool
	NoiseReductionMode    noise.Mode
	ReductionAmount       float64 // linear gain floor / undersubtraction value in [0,1]
	SmoothingFactor       float64 // 0..1
	WhiteningFactor       float64 // 0..1
	NoiseScalingType      dsp.NoiseScalingType
	NoiseRescale          float64 // additive offset on the base oversubtraction alpha
	PostFilterThreshold   float64 // linear SNR threshold (power ratio)
	NoiseEstimationMethod noise.Method
	AdaptiveNoise         bool
}

// DefaultParameters matches the reference implementation's compiled-in
// defaults: no reduction, masking-threshold noise scaling, SPP-MMSE
// estimation, no adaptive layering.
func DefaultParameters() Parameters {
	return Parameters{
		NoiseReductionMode:    noise.RollingMean,
		ReductionAmount:       0,
		SmoothingFactor:       0,
		WhiteningFactor:       0,
		NoiseScalingType:      dsp.MaskingThresholdScaling,
		NoiseRescale:          0,
		PostFilterThreshold:   dsp.FromDBToCoefficientPower(0),
		NoiseEstimationMethod: noise.SPPMMSEMethod,
	}
}

// ReductionAmountFromDB converts a 0-40 dB maximum-attenuation knob into
// the linear gain-floor value Parameters.ReductionAmount expects.
func ReductionAmountFromDB(db float64) float64 {
	return dsp.FromDBToCoefficientPower(-db)
}

// PostFilterThresholdFromDB converts a -10..10 dB SNR threshold knob into
// the linear power-ratio value Parameters.PostFilterThreshold expects.
func PostFilterThresholdFromDB(db float64) float64 {
	return dsp.FromDBToCoefficientPower(db)
}

const defaultOversubtraction = 2.0

// overlap factors per spec.md §3: 2 for adaptive, 4 for manual/2-D.
const (
	overlapFactorSpeech  = 2
	overlapFactorGeneral = 4
)
