package denoiser

import (
	"fmt"
	"math"

	"specgate/dsp"
	"specgate/noise"
)

// maskingVetoEnabled gates the optional post-gain-estimation masking-veto
// stage (dsp.MaskingVeto), off by default per SPEC_FULL.md §4.16 — flip to
// true to rescue gain in fully masked regions beyond what the
// masking-thresholds scaling criterion already does.
const maskingVetoEnabled = false

// core bundles the spectral-domain collaborators shared by all three
// top-level processors: the STFT frontend, FFT transform, spectral
// features, critical bands, masking estimator, noise-scaling criteria,
// smoother, post-filter, noise-floor manager, mixer and manual noise
// profile. Each top-level denoiser exclusively owns one core, per
// spec.md §3's ownership rules.
type core struct {
	sampleRate   int
	frameSamples int
	hop          int
	fftSize      int
	realBins     int

	transform    *dsp.Transform
	window       *dsp.WindowPair
	stft         *dsp.StreamProcessor
	features     *dsp.Features
	bands        *dsp.CriticalBands
	masking      *dsp.MaskingEstimator
	scaling      *dsp.NoiseScalingCriteria
	smoother     *dsp.SpectralSmoother
	postfilter   *dsp.PostFilter
	floorManager *dsp.NoiseFloorManager
	mixer        *dsp.DenoiseMixer
	maskingVeto  *dsp.MaskingVeto
	profile      *noise.Profile

	referenceSpectrum []float64
	noiseSpectrum     []float64
	alpha             []float64
	beta              []float64
	gain              []float64
	cleanEstimate     []float64

	params Parameters
}

// newCore validates sampleRate/frameMs, derives frame geometry, and
// allocates every spectral-domain collaborator. Heap allocation for a
// processor's lifetime happens here, except for an adaptive estimator
// built by LoadParameters and the per-frame scratch slices the manual
// profile allocates while learning its median mode.
func newCore(sampleRate int, frameMs float64, overlapFactor int, transientProtected bool) (*core, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("denoiser: sample rate must be positive, got %d", sampleRate)
	}
	if frameMs <= 0 {
		return nil, fmt.Errorf("denoiser: frame size must be positive, got %g ms", frameMs)
	}

	frameSamples := int(math.Round(frameMs * float64(sampleRate) / 1000))
	if frameSamples < 2 {
		frameSamples = 2
	}

	transform, err := dsp.NewTransform(frameSamples, dsp.NoPadding, 0)
	if err != nil {
		return nil, err
	}
	fftSize := transform.Size()
	hop := fftSize / overlapFactor
	if hop < 1 {
		hop = 1
	}

	window := dsp.NewWindowPair(dsp.HannWindow, transform.FrameSize(), hop)
	stft, err := dsp.NewStreamProcessor(transform, window, hop)
	if err != nil {
		return nil, err
	}

	realBins := transform.RealBins()
	bands := dsp.NewCriticalBands(dsp.BarkBands, sampleRate, realBins)
	masking := dsp.NewMaskingEstimator(bands, realBins, sampleRate)

	c := &core{
		sampleRate:        sampleRate,
		frameSamples:      frameSamples,
		hop:               hop,
		fftSize:           fftSize,
		realBins:          realBins,
		transform:         transform,
		window:            window,
		stft:              stft,
		features:          dsp.NewFeatures(fftSize),
		bands:             bands,
		masking:           masking,
		scaling:           dsp.NewNoiseScalingCriteria(bands, masking, realBins),
		smoother:          dsp.NewSpectralSmoother(realBins, transientProtected, nil),
		postfilter:        dsp.NewPostFilter(realBins),
		floorManager:      dsp.NewNoiseFloorManager(fftSize),
		mixer:             dsp.NewDenoiseMixer(fftSize),
		maskingVeto:       dsp.NewMaskingVeto(masking, realBins),
		profile:           noise.NewProfile(realBins, 5),
		referenceSpectrum: make([]float64, realBins),
		noiseSpectrum:     make([]float64, realBins),
		alpha:             make([]float64, realBins),
		beta:              make([]float64, realBins),
		gain:              make([]float64, fftSize),
		cleanEstimate:     make([]float64, realBins),
		params:            DefaultParameters(),
	}
	for k := range c.gain {
		c.gain[k] = 1
	}
	return c, nil
}

// latency is the STFT frontend's reportable delay in samples.
func (c *core) latency() int { return c.stft.Latency() }

// Noise-profile accessor helpers, wrapped by the Manual and 2-D
// processors' exported methods (spec.md §6: manual and 2-D only).
func (c *core) noiseProfileSize() int { return c.realBins }

func (c *core) noiseProfileForMode(mode noise.Mode) ([]float64, error) {
	return c.profile.Get(mode)
}

func (c *core) loadNoiseProfileForMode(mode noise.Mode, values []float64, blocks int) error {
	return c.profile.Set(mode, values, blocks)
}

func (c *core) resetNoiseProfile() { c.profile.Reset() }

func (c *core) noiseProfileAvailable(mode noise.Mode) bool { return c.profile.IsAvailable(mode) }

func (c *core) noiseProfileBlocksAveraged(mode noise.Mode) int { return c.profile.BlocksAveraged(mode) }

// loadParameters copies scalar parameters, real-time safe on its own
// (reseeding an adaptive estimator on method change is handled by the
// owning processor, not here).
func (c *core) loadParameters(p Parameters) {
	c.params = p
}

// reduceFrame runs scaling -> smoothing -> gain -> noise-floor/whitening
// -> post-filter -> mixer on the given packed FFT buffer using
// c.noiseSpectrum as the current noise estimate, matching the reference
// orchestration's actual call order (noise-floor manager before
// post-filter; see SPEC_FULL.md §2).
func (c *core) reduceFrame(packed []float64, postfilterEnabled bool) {
	c.features.Power(c.referenceSpectrum, packed)
	c.applyPipeline(packed, postfilterEnabled)
}

// reduceFrameWithReference runs the same pipeline as reduceFrame but
// against caller-supplied reference and noise spectra instead of
// extracting the power spectrum from packed — used by the 2-D processor,
// whose reference spectrum comes out of the NLM filter rather than
// directly from the frame it is finally mixed against.
func (c *core) reduceFrameWithReference(packed, reference, noiseSpectrum []float64, postfilterEnabled bool) {
	copy(c.referenceSpectrum, reference)
	copy(c.noiseSpectrum, noiseSpectrum)
	c.applyPipeline(packed, postfilterEnabled)
}

func (c *core) applyPipeline(packed []float64, postfilterEnabled bool) {
	scalingParams := dsp.ScalingParameters{
		Oversubtraction:  defaultOversubtraction + c.params.NoiseRescale,
		Undersubtraction: c.params.ReductionAmount,
		ScalingType:      c.params.NoiseScalingType,
	}
	c.scaling.Apply(c.referenceSpectrum, c.noiseSpectrum, c.alpha, c.beta, scalingParams)

	c.smoother.Run(c.referenceSpectrum, dsp.TimeSmoothingParameters{Smoothing: c.params.SmoothingFactor})

	dsp.EstimateGains(c.realBins, c.referenceSpectrum, c.noiseSpectrum, c.gain, c.alpha, c.beta, dsp.WienerGain, dsp.DefaultGSSExponent)

	if maskingVetoEnabled {
		for k := 0; k < c.realBins; k++ {
			c.cleanEstimate[k] = math.Max(c.referenceSpectrum[k]-c.noiseSpectrum[k], 0)
		}
		c.maskingVeto.Apply(c.gain[:c.realBins], c.cleanEstimate, c.noiseSpectrum)
	}

	c.floorManager.Apply(c.gain, c.noiseSpectrum, c.params.ReductionAmount, c.params.WhiteningFactor)

	if postfilterEnabled {
		c.postfilter.Apply(c.referenceSpectrum, c.gain, dsp.PostFilterParameters{
			SNRThreshold: c.params.PostFilterThreshold,
			GainFloor:    c.params.ReductionAmount,
		})
		for k := 1; k < c.fftSize-k; k++ {
			c.gain[c.fftSize-k] = c.gain[k]
		}
	}

	c.mixer.Run(packed, packed, c.gain, dsp.DenoiseMixerParameters{ResidualListen: c.params.ResidualListen})
}
