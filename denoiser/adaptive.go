package denoiser

import (
	"specgate/noise"
)

// Adaptive runs a single always-on adaptive noise estimator with no
// learned manual profile and no transient-protection branch in its
// smoother, per spec.md §4.12 "Adaptive denoiser". It never exposes
// noise-profile accessors: composing core as a named field rather than
// embedding it keeps those methods from being promoted here.
type Adaptive struct {
	c *core

	estimator       noise.Estimator
	estimatorMethod noise.Method
	estimatorSeeded bool
}

// NewAdaptive constructs an adaptive denoiser for the given sample rate
// and frame size in milliseconds, with the speech overlap factor (2) and
// transient protection disabled.
func NewAdaptive(sampleRate int, frameMs float64) (*Adaptive, error) {
	c, err := newCore(sampleRate, frameMs, overlapFactorSpeech, false)
	if err != nil {
		return nil, err
	}
	est, err := noise.New(noise.SPPMMSEMethod, c.realBins, c.sampleRate, c.hop)
	if err != nil {
		return nil, err
	}
	return &Adaptive{c: c, estimator: est, estimatorMethod: noise.SPPMMSEMethod}, nil
}

// LoadParameters copies scalar parameters, reinstantiating the estimator
// if its method changed.
func (a *Adaptive) LoadParameters(p Parameters) error {
	if a.estimator == nil || p.NoiseEstimationMethod != a.estimatorMethod {
		est, err := noise.New(p.NoiseEstimationMethod, a.c.realBins, a.c.sampleRate, a.c.hop)
		if err != nil {
			return err
		}
		a.estimator = est
		a.estimatorMethod = p.NoiseEstimationMethod
		a.estimatorSeeded = false
	}
	a.c.loadParameters(p)
	return nil
}

// GetLatency returns the STFT frontend's fixed latency in samples.
func (a *Adaptive) GetLatency() int { return a.c.latency() }

// Process runs the full adaptive-denoiser frame loop over n samples.
func (a *Adaptive) Process(in, out []float64) bool {
	return a.c.stft.Process(in, out, a.frameCallback)
}

func (a *Adaptive) frameCallback(packed []float64) {
	a.c.features.Power(a.c.referenceSpectrum, packed)

	if !a.estimatorSeeded {
		a.estimator.SetState(a.c.referenceSpectrum)
		a.estimatorSeeded = true
	}
	a.estimator.Run(a.c.referenceSpectrum, a.c.noiseSpectrum)

	a.c.reduceFrame(packed, true)
}
