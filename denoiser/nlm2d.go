package denoiser

import (
	"specgate/dsp"
	"specgate/noise"
)

// packedFrameRing is a small circular buffer of fftSize-length packed FFT
// frames, mirroring dsp's internal frame ring so the 2-D processor can
// recover the original phase of the frame the NLM filter is currently
// emitting a smoothed estimate for.
type packedFrameRing struct {
	frames  [][]float64
	fftSize int
	head    int
	filled  int
}

func newPackedFrameRing(depth, fftSize int) *packedFrameRing {
	frames := make([][]float64, depth)
	for i := range frames {
		frames[i] = make([]float64, fftSize)
	}
	return &packedFrameRing{frames: frames, fftSize: fftSize}
}

func (r *packedFrameRing) push(frame []float64) {
	copy(r.frames[r.head], frame)
	r.head = (r.head + 1) % len(r.frames)
	if r.filled < len(r.frames) {
		r.filled++
	}
}

func (r *packedFrameRing) getAtOffset(offset int) []float64 {
	n := len(r.frames)
	idx := ((r.head-1-offset)%n + n) % n
	return r.frames[idx]
}

// TwoD runs the two-dimensional (time x frequency) NLM-smoothed variant.
// It learns and subtracts a manual noise profile exactly like Manual, but
// delays emission by T+ frames so the NLM filter can smooth across a
// look-ahead window before the gain pipeline runs on the delayed frame.
type TwoD struct {
	c   *core
	nlm *dsp.NLMFilter

	packed *packedFrameRing

	snrFrame         []float64
	delayedReference []float64

	estimator       noise.Estimator
	estimatorMethod noise.Method
	estimatorSeeded bool
}

// NewTwoD constructs a 2-D NLM denoiser for the given sample rate and
// frame size in milliseconds, using the manual/2-D overlap factor (4) and
// no transient-protection branch (manual denoiser only, per spec.md §4.7).
func NewTwoD(sampleRate int, frameMs float64) (*TwoD, error) {
	c, err := newCore(sampleRate, frameMs, overlapFactorGeneral, false)
	if err != nil {
		return nil, err
	}
	nlm := dsp.NewNLMFilter(dsp.DefaultNLMConfig(), c.realBins)

	return &TwoD{
		c:                c,
		nlm:              nlm,
		packed:           newPackedFrameRing(nlm.TimeBufferSize(), c.fftSize),
		snrFrame:         make([]float64, c.realBins),
		delayedReference: make([]float64, c.realBins),
	}, nil
}

// LoadParameters copies scalar parameters, reseeding the adaptive
// estimator if AdaptiveNoise was just enabled or its method changed.
func (d *TwoD) LoadParameters(p Parameters) error {
	if p.AdaptiveNoise {
		if d.estimator == nil || p.NoiseEstimationMethod != d.estimatorMethod {
			est, err := noise.New(p.NoiseEstimationMethod, d.c.realBins, d.c.sampleRate, d.c.hop)
			if err != nil {
				return err
			}
			d.estimator = est
			d.estimatorMethod = p.NoiseEstimationMethod
			d.estimatorSeeded = false
		}
	}
	d.c.loadParameters(p)
	return nil
}

// GetLatency returns the STFT frontend's base latency plus the NLM
// filter's look-ahead latency expressed in samples (T+ * hop).
func (d *TwoD) GetLatency() int {
	return d.c.latency() + d.nlm.GetLatencyFrames()*d.c.hop
}

// Process runs the full 2-D frame loop over n samples.
func (d *TwoD) Process(in, out []float64) bool {
	return d.c.stft.Process(in, out, d.frameCallback)
}

func (d *TwoD) frameCallback(packed []float64) {
	d.packed.push(packed)

	d.c.features.Power(d.c.referenceSpectrum, packed)

	if d.c.params.LearnNoise {
		d.c.profile.LearnAll(d.c.referenceSpectrum)
		d.pushFrame()
		copy(packed, d.packed.getAtOffset(d.nlm.GetLatencyFrames()))
		return
	}

	haveNoise := d.c.profile.IsAvailable(d.c.params.NoiseReductionMode)
	if haveNoise {
		profileValues, err := d.c.profile.Get(d.c.params.NoiseReductionMode)
		if err == nil {
			copy(d.c.noiseSpectrum, profileValues)
		} else {
			haveNoise = false
		}
	}
	if !haveNoise {
		for k := range d.c.noiseSpectrum {
			d.c.noiseSpectrum[k] = 0
		}
	}

	if haveNoise && d.c.params.AdaptiveNoise && d.estimator != nil {
		if !d.estimatorSeeded {
			d.estimator.SetState(d.c.noiseSpectrum)
			d.estimatorSeeded = true
		}
		d.estimator.ApplyFloor(d.c.noiseSpectrum)
		d.estimator.Run(d.c.referenceSpectrum, d.c.noiseSpectrum)
	}

	d.pushFrame()

	if !haveNoise || !d.nlm.IsReady() {
		copy(packed, d.packed.getAtOffset(d.nlm.GetLatencyFrames()))
		return
	}

	d.nlm.Process(d.delayedReference)
	delayedNoise := d.nlm.DelayedNoise()
	delayedPacked := d.packed.getAtOffset(d.nlm.GetLatencyFrames())

	d.c.reduceFrameWithReference(delayedPacked, d.delayedReference, delayedNoise, true)
	copy(packed, delayedPacked)
}

func (d *TwoD) pushFrame() {
	for k := range d.snrFrame {
		d.snrFrame[k] = d.c.referenceSpectrum[k] / (d.c.noiseSpectrum[k] + 1e-12)
	}
	d.nlm.PushFrame(d.snrFrame, d.c.noiseSpectrum)
}

// GetNoiseProfileSize returns real_bins.
func (d *TwoD) GetNoiseProfileSize() int { return d.c.noiseProfileSize() }

// GetNoiseProfileForMode returns a borrowed read-only view of the
// profile for mode, valid until the next LoadParameters/reset call.
func (d *TwoD) GetNoiseProfileForMode(mode noise.Mode) ([]float64, error) {
	return d.c.noiseProfileForMode(mode)
}

// LoadNoiseProfileForMode copies values into the given mode's profile.
func (d *TwoD) LoadNoiseProfileForMode(mode noise.Mode, values []float64, blocksAveraged int) error {
	return d.c.loadNoiseProfileForMode(mode, values, blocksAveraged)
}

// ResetNoiseProfile clears all three modes and their availability flags.
func (d *TwoD) ResetNoiseProfile() { d.c.resetNoiseProfile() }

// NoiseProfileAvailableForMode reports whether mode has enough learning
// updates to be used for reduction.
func (d *TwoD) NoiseProfileAvailableForMode(mode noise.Mode) bool {
	return d.c.noiseProfileAvailable(mode)
}

// GetNoiseProfileBlocksAveragedForMode returns the learning-update count
// for mode.
func (d *TwoD) GetNoiseProfileBlocksAveragedForMode(mode noise.Mode) int {
	return d.c.noiseProfileBlocksAveraged(mode)
}
