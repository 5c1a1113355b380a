package dsp

import "math"

// PostfilterScale is the default adaptive-window scale factor (n grows by
// up to 2*scale+1 bins as SNR falls), matching POSTFILTER_SCALE.
const PostfilterScale = 10.0

// PostFilterParameters carries the per-call tunables for the post-filter.
type PostFilterParameters struct {
	SNRThreshold float64 // dB-like linear threshold above which no smoothing occurs
	GainFloor    float64
}

// PostFilter smooths the gain map with an adaptive-width moving average,
// widening the window as the a-posteriori SNR falls, and never raising
// gain above what a plain moving average would produce when
// PreserveMinimum is set.
type PostFilter struct {
	realBins        int
	intermediate    []float64
	preserveMinimum bool
	scale           float64
}

func NewPostFilter(realBins int) *PostFilter {
	return &PostFilter{
		realBins:        realBins,
		intermediate:    make([]float64, realBins),
		preserveMinimum: true,
		scale:           PostfilterScale,
	}
}

func (p *PostFilter) adaptiveWindowSize(spectrum, gain []float64, snrThreshold float64) int {
	var cleanEnergy, noisyEnergy float64
	for k := 0; k < p.realBins; k++ {
		noisy := spectrum[k]
		clean := noisy * gain[k]
		cleanEnergy += clean * clean
		noisyEnergy += noisy * noisy
	}
	if noisyEnergy <= Epsilon {
		return 1
	}

	zeta := cleanEnergy / noisyEnergy
	zetaT := zeta
	if zeta >= snrThreshold {
		zetaT = 1
	}
	if zetaT >= 1 {
		return 1
	}

	n := 2*math.Round(p.scale*(1-zetaT/snrThreshold)) + 1
	return int(n)
}

func movingAverage(in, out []float64, n int) {
	size := len(in)
	if n <= 1 || n > size {
		copy(out, in)
		return
	}

	half := n / 2
	sum := 0.0
	clampIdx := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= size {
			return size - 1
		}
		return i
	}
	for i := -half; i <= half; i++ {
		sum += in[clampIdx(i)]
	}

	for i := 0; i < size; i++ {
		out[i] = sum / float64(n)
		if i+1 < size {
			oldIdx := clampIdx(i - half)
			newIdx := clampIdx(i + half + 1)
			sum -= in[oldIdx]
			sum += in[newIdx]
		}
	}
}

// Apply smooths gain in place using spectrum as the reference energy
// measure, then clamps every bin to [GainFloor, 1].
func (p *PostFilter) Apply(spectrum, gain []float64, params PostFilterParameters) {
	n := p.adaptiveWindowSize(spectrum, gain, params.SNRThreshold)

	if n > 1 {
		movingAverage(gain[:p.realBins], p.intermediate, n)
		if p.preserveMinimum {
			for k := 0; k < p.realBins; k++ {
				gain[k] = math.Min(gain[k], p.intermediate[k])
			}
		} else {
			copy(gain, p.intermediate)
		}
	}

	for k := 0; k < p.realBins; k++ {
		if gain[k] < params.GainFloor {
			gain[k] = params.GainFloor
		}
	}
}
