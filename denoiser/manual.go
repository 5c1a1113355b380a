package denoiser

import (
	"specgate/noise"
)

// Manual learns a noise profile (one of three rolling statistics) and
// subtracts it, optionally layering an adaptive estimator on top using
// the learned profile as a hard floor. See spec.md §4.12 "Manual
// denoiser".
type Manual struct {
	c *core

	estimator       noise.Estimator
	estimatorMethod noise.Method
	estimatorSeeded bool
}

// NewManual constructs a manual denoiser for the given sample rate and
// frame size in milliseconds. Overlap factor is 4 (manual/2-D), per
// spec.md §3.
func NewManual(sampleRate int, frameMs float64) (*Manual, error) {
	c, err := newCore(sampleRate, frameMs, overlapFactorGeneral, true)
	if err != nil {
		return nil, err
	}
	return &Manual{c: c}, nil
}

// LoadParameters copies scalar parameters, reseeding the adaptive
// estimator if AdaptiveNoise was just enabled or its method changed —
// the only case in which this call allocates, matching spec.md §5's
// allocation discipline.
func (m *Manual) LoadParameters(p Parameters) error {
	if p.AdaptiveNoise {
		if m.estimator == nil || p.NoiseEstimationMethod != m.estimatorMethod {
			est, err := noise.New(p.NoiseEstimationMethod, m.c.realBins, m.c.sampleRate, m.c.hop)
			if err != nil {
				return err
			}
			m.estimator = est
			m.estimatorMethod = p.NoiseEstimationMethod
			m.estimatorSeeded = false
		}
	}
	m.c.loadParameters(p)
	return nil
}

// GetLatency returns the STFT frontend's fixed latency in samples.
func (m *Manual) GetLatency() int { return m.c.latency() }

// Process runs the full manual-denoiser frame loop over n samples.
// Returns false without side effects on invalid arguments.
func (m *Manual) Process(in, out []float64) bool {
	return m.c.stft.Process(in, out, m.frameCallback)
}

func (m *Manual) frameCallback(packed []float64) {
	m.c.features.Power(m.c.referenceSpectrum, packed)

	if m.c.params.LearnNoise {
		m.c.profile.LearnAll(m.c.referenceSpectrum)
		return
	}

	if !m.c.profile.IsAvailable(m.c.params.NoiseReductionMode) {
		return
	}

	profileValues, err := m.c.profile.Get(m.c.params.NoiseReductionMode)
	if err != nil {
		return
	}
	copy(m.c.noiseSpectrum, profileValues)

	if m.c.params.AdaptiveNoise && m.estimator != nil {
		if !m.estimatorSeeded {
			m.estimator.SetState(m.c.noiseSpectrum)
			m.estimatorSeeded = true
		}
		m.estimator.ApplyFloor(m.c.noiseSpectrum)
		m.estimator.Run(m.c.referenceSpectrum, m.c.noiseSpectrum)
	}

	m.c.reduceFrame(packed, true)
}

// GetNoiseProfileSize returns real_bins.
func (m *Manual) GetNoiseProfileSize() int { return m.c.noiseProfileSize() }

// GetNoiseProfileForMode returns a borrowed read-only view of the
// profile for mode, valid until the next LoadParameters/reset call.
func (m *Manual) GetNoiseProfileForMode(mode noise.Mode) ([]float64, error) {
	return m.c.noiseProfileForMode(mode)
}

// LoadNoiseProfileForMode copies values into the given mode's profile.
func (m *Manual) LoadNoiseProfileForMode(mode noise.Mode, values []float64, blocksAveraged int) error {
	return m.c.loadNoiseProfileForMode(mode, values, blocksAveraged)
}

// ResetNoiseProfile clears all three modes and their availability flags.
func (m *Manual) ResetNoiseProfile() { m.c.resetNoiseProfile() }

// NoiseProfileAvailableForMode reports whether mode has enough learning
// updates to be used for reduction.
func (m *Manual) NoiseProfileAvailableForMode(mode noise.Mode) bool {
	return m.c.noiseProfileAvailable(mode)
}

// GetNoiseProfileBlocksAveragedForMode returns the learning-update count
// for mode.
func (m *Manual) GetNoiseProfileBlocksAveragedForMode(mode noise.Mode) int {
	return m.c.noiseProfileBlocksAveraged(mode)
}
