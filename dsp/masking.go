package dsp

import "math"

// MaskingEstimator computes a per-bin masking threshold from a clean
// signal estimate, combining a critical-band spreading function, an
// absolute hearing threshold curve and a fixed tonality bias. Used by the
// masking-thresholds noise-scaling criterion (§4.5) and by the optional
// masking-veto enrichment.
type MaskingEstimator struct {
	bands        *CriticalBands
	realBins     int
	absThreshold []float64 // per-bin absolute threshold of hearing, linear power
	bandEnergy   []float64
	spread       []float64
}

// NewMaskingEstimator builds the estimator for a fixed band table, sample
// rate and number of real bins.
func NewMaskingEstimator(bands *CriticalBands, realBins, sampleRate int) *MaskingEstimator {
	m := &MaskingEstimator{
		bands:        bands,
		realBins:     realBins,
		absThreshold: make([]float64, realBins),
		bandEnergy:   make([]float64, len(bands.Bands)),
		spread:       make([]float64, len(bands.Bands)),
	}
	// Approximate the ISO 226 absolute threshold of hearing with the
	// well known Terhardt closed-form curve, expressed here in linear
	// power units relative to the same reference as the spectrum.
	for k := 0; k < realBins; k++ {
		freqHz := float64(k) / float64(realBins-1) * float64(sampleRate) / 2
		fk := freqHz / 1000
		if fk < 0.02 {
			fk = 0.02
		}
		dbSPL := 3.64*math.Pow(fk, -0.8) - 6.5*math.Exp(-0.6*(fk-3.3)*(fk-3.3)) + 1e-3*fk*fk*fk*fk
		m.absThreshold[k] = FromDBToCoefficientPower(dbSPL - 96)
	}
	return m
}

// ComputeThresholds writes the masking threshold for each real bin into
// dst, given a (non-negative) clean-signal power estimate in spectrum.
func (m *MaskingEstimator) ComputeThresholds(dst, spectrum []float64) {
	for i, b := range m.bands.Bands {
		sum := 0.0
		for k := b.Start; k < b.End && k < m.realBins; k++ {
			sum += spectrum[k]
		}
		m.bandEnergy[i] = sum
	}

	// Triangular spreading across neighboring bands, geometric falloff.
	const spreadFactor = 0.6
	for i := range m.spread {
		acc := m.bandEnergy[i]
		for d := 1; i-d >= 0 || i+d < len(m.spread); d++ {
			w := math.Pow(spreadFactor, float64(d))
			if w < 1e-4 {
				break
			}
			if i-d >= 0 {
				acc += m.bandEnergy[i-d] * w
			}
			if i+d < len(m.spread) {
				acc += m.bandEnergy[i+d] * w
			}
		}
		// Tonality bias: treat the estimate as tone-like, applying a
		// fixed ~5 dB protection margin (power domain).
		m.spread[i] = acc * FromDBToCoefficientPower(-5)
	}

	for i, b := range m.bands.Bands {
		for k := b.Start; k < b.End && k < m.realBins; k++ {
			dst[k] = math.Max(m.spread[i], m.absThreshold[k])
		}
	}
}

// MaskingVeto implements the reference's secondary, newer masking
// mechanism (post_estimation/masking_veto.c): it can additionally rescue
// gain in fully masked regions via a smoothing-ratio term, independent of
// the direct masking-thresholds noise-scaling criterion. Disabled by
// default; enabling it does not change the default numeric behaviour
// documented by spec.md, matching the reference's own feature-flag
// convention for optional post-estimation stages.
type MaskingVeto struct {
	masking     *MaskingEstimator
	elasticity  float64
	smoothedNMR []float64
	thresholds  []float64
}

// NewMaskingVeto builds a veto stage sharing the given masking estimator.
func NewMaskingVeto(masking *MaskingEstimator, realBins int) *MaskingVeto {
	return &MaskingVeto{
		masking:     masking,
		elasticity:  ElasticProtectionFactor,
		smoothedNMR: make([]float64, realBins),
		thresholds:  make([]float64, realBins),
	}
}

// Apply rescues gain[k] upward when the residual is fully masked, using a
// smoothed NMR estimate and an elasticity-scaled blend between the
// current gain and unity.
func (v *MaskingVeto) Apply(gain, cleanEstimate, noise []float64) {
	v.masking.ComputeThresholds(v.thresholds, cleanEstimate)

	for k := range gain {
		residual := cleanEstimate[k] * gain[k]
		nmr := residual / FloorAt(v.thresholds[k], Epsilon)
		nmrDB := FromCoefficientToDBPower(FloorAt(nmr, Epsilon))

		v.smoothedNMR[k] = 0.8*v.smoothedNMR[k] + 0.2*nmrDB

		if v.smoothedNMR[k] <= 0 {
			smoothingRatio := v.elasticity * (1 - Clamp(v.smoothedNMR[k]/-20, 0, 1))
			gain[k] = gain[k] + (1-gain[k])*smoothingRatio
		}
	}
}
