package dsp

import "math"

// NLMConfig configures the 2-D (time x frequency) non-local means
// smoother. Defaults follow spec.md §4.11's stated values rather than the
// reference implementation's smaller compiled-in defaults (see
// SPEC_FULL.md §9, resolution 5).
type NLMConfig struct {
	PatchSize       int // P
	PasteBlockSize  int // B
	SearchRangeFreq int // F
	SearchRangePast int // T-
	SearchRangeFuture int // T+
	H               float64
	DistanceThreshold float64 // 0 = derive as 4*h^2
}

// DefaultNLMConfig returns spec.md's stated defaults.
func DefaultNLMConfig() NLMConfig {
	return NLMConfig{
		PatchSize:         8,
		PasteBlockSize:    4,
		SearchRangeFreq:   8,
		SearchRangePast:   16,
		SearchRangeFuture: 4,
		H:                 1.0,
	}
}

const nlmMinWeight = 1e-10

// frameRing is a circular buffer of real_bins-length frames, encapsulating
// the index arithmetic spec.md §9 calls out as the commonest source of
// bugs: push, get_at_offset(relative to the write head), is_full.
type frameRing struct {
	frames   [][]float64
	realBins int
	head     int
	filled   int
}

func newFrameRing(depth, realBins int) *frameRing {
	frames := make([][]float64, depth)
	for i := range frames {
		frames[i] = make([]float64, realBins)
	}
	return &frameRing{frames: frames, realBins: realBins}
}

func (r *frameRing) push(frame []float64) {
	copy(r.frames[r.head], frame)
	r.head = (r.head + 1) % len(r.frames)
	if r.filled < len(r.frames) {
		r.filled++
	}
}

func (r *frameRing) isFull() bool { return r.filled >= len(r.frames) }

// getAtOffset returns the frame `offset` slots behind the most recently
// pushed one (offset 0 = most recent push).
func (r *frameRing) getAtOffset(offset int) []float64 {
	n := len(r.frames)
	idx := ((r.head-1-offset)%n + n) % n
	return r.frames[idx]
}

// NLMFilter smooths an SNR map across a time x frequency neighborhood
// using patch-similarity weights, with explicit look-ahead latency.
type NLMFilter struct {
	cfg      NLMConfig
	realBins int
	snrRing  *frameRing
	noiseRing *frameRing
	hSquared float64
	distanceThreshold float64
	targetOffset int // offset (behind head) of the target frame = T+
	weightAccum []float64
	snrAccum    []float64
}

// NewNLMFilter builds a filter for the given config and bin count. Any
// zero-valued config fields are replaced by DefaultNLMConfig's values.
func NewNLMFilter(cfg NLMConfig, realBins int) *NLMFilter {
	def := DefaultNLMConfig()
	if cfg.PatchSize <= 0 {
		cfg.PatchSize = def.PatchSize
	}
	if cfg.PasteBlockSize <= 0 {
		cfg.PasteBlockSize = def.PasteBlockSize
	}
	if cfg.SearchRangeFreq <= 0 {
		cfg.SearchRangeFreq = def.SearchRangeFreq
	}
	if cfg.SearchRangePast <= 0 {
		cfg.SearchRangePast = def.SearchRangePast
	}
	if cfg.SearchRangeFuture <= 0 {
		cfg.SearchRangeFuture = def.SearchRangeFuture
	}
	if cfg.H <= 0 {
		cfg.H = def.H
	}
	hSquared := cfg.H * cfg.H
	if cfg.DistanceThreshold <= 0 {
		cfg.DistanceThreshold = 4 * hSquared
	}

	timeBufferSize := cfg.SearchRangePast + cfg.SearchRangeFuture + 1

	return &NLMFilter{
		cfg:               cfg,
		realBins:          realBins,
		snrRing:           newFrameRing(timeBufferSize, realBins),
		noiseRing:         newFrameRing(timeBufferSize, realBins),
		hSquared:          hSquared,
		distanceThreshold: cfg.DistanceThreshold,
		targetOffset:      cfg.SearchRangeFuture,
		weightAccum:       make([]float64, realBins),
		snrAccum:          make([]float64, realBins),
	}
}

// GetLatencyFrames reports the look-ahead latency in frames (T+).
func (f *NLMFilter) GetLatencyFrames() int { return f.cfg.SearchRangeFuture }

// TimeBufferSize reports the depth of the internal ring buffers
// (T- + T+ + 1), the number of frames a caller's own parallel ring
// buffer (e.g. one holding packed FFT frames for phase recovery) must
// match to stay in lock-step with PushFrame/Process.
func (f *NLMFilter) TimeBufferSize() int { return len(f.snrRing.frames) }

// PushFrame pushes a new SNR frame and its paired noise profile into the
// parallel ring buffers.
func (f *NLMFilter) PushFrame(snr, noiseProfile []float64) {
	f.snrRing.push(snr)
	f.noiseRing.push(noiseProfile)
}

// IsReady reports whether enough frames have accumulated to produce a
// smoothed output for the delayed target frame.
func (f *NLMFilter) IsReady() bool { return f.snrRing.isFull() }

// DelayedNoise returns the noise profile paired with the target frame
// Process will next emit a smoothed estimate for.
func (f *NLMFilter) DelayedNoise() []float64 { return f.noiseRing.getAtOffset(f.targetOffset) }

func fastExpNeg(x float64) float64 {
	if x > 10 {
		return 0
	}
	if x < 0 {
		x = 0
	}
	return math.Exp(-x)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (f *NLMFilter) patchDistance(a, b []float64, centerA, centerB int) float64 {
	half := f.cfg.PatchSize / 2
	var sum float64
	for p := -half; p < f.cfg.PatchSize-half; p++ {
		ia := clampIndex(centerA+p, f.realBins)
		ib := clampIndex(centerB+p, f.realBins)
		d := a[ia] - b[ib]
		sum += d * d
	}
	return sum
}

// Process smooths the target (delayed) SNR frame and returns the smoothed
// power spectrum, recovered using the delayed noise profile paired
// with that same target frame.
func (f *NLMFilter) Process(dst []float64) {
	target := f.snrRing.getAtOffset(f.targetOffset)
	delayedNoise := f.noiseRing.getAtOffset(f.targetOffset)

	for k := range f.weightAccum {
		f.weightAccum[k] = 0
		f.snrAccum[k] = 0
	}

	half := f.cfg.PatchSize / 2
	_ = half

	for blockStart := 0; blockStart < f.realBins; blockStart += f.cfg.PasteBlockSize {
		blockEnd := blockStart + f.cfg.PasteBlockSize
		if blockEnd > f.realBins {
			blockEnd = f.realBins
		}
		blockCenter := (blockStart + blockEnd - 1) / 2

		for dt := -f.cfg.SearchRangePast; dt <= f.cfg.SearchRangeFuture; dt++ {
			offset := f.targetOffset - dt
			if offset < 0 || offset >= f.cfg.SearchRangePast+f.cfg.SearchRangeFuture+1 {
				continue
			}
			candidate := f.snrRing.getAtOffset(offset)

			for df := -f.cfg.SearchRangeFreq; df <= f.cfg.SearchRangeFreq; df++ {
				candidateCenter := clampIndex(blockCenter+df, f.realBins)

				distance := f.patchDistance(target, candidate, blockCenter, candidateCenter)
				if distance > f.distanceThreshold {
					continue
				}
				weight := fastExpNeg(distance / f.hSquared)
				if weight < nlmMinWeight {
					continue
				}

				for k := blockStart; k < blockEnd; k++ {
					srcIdx := clampIndex(k+df, f.realBins)
					f.snrAccum[k] += weight * candidate[srcIdx]
					f.weightAccum[k] += weight
				}
			}
		}
	}

	for k := 0; k < f.realBins; k++ {
		var smoothedSNR float64
		if f.weightAccum[k] < nlmMinWeight {
			smoothedSNR = target[k]
		} else {
			smoothedSNR = f.snrAccum[k] / f.weightAccum[k]
		}
		dst[k] = smoothedSNR * delayedNoise[k]
	}
}

// Reset clears all buffered frames.
func (f *NLMFilter) Reset() {
	f.snrRing = newFrameRing(len(f.snrRing.frames), f.realBins)
	f.noiseRing = newFrameRing(len(f.noiseRing.frames), f.realBins)
}
