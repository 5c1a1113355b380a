package noise

import "math"

const (
	sppFixedXiH1    = 31.62 // fixed a-priori SNR, 15 dB
	sppAlphaPow     = 0.8   // temporal smoothing of sigma^2
	sppSmoothSPP    = 0.9   // IIR smoothing of the stagnation-guard average
	sppCurrentSPP   = 0.1
	sppStagnation   = 0.99
	sppSigmaFloor   = 1e-12
)

// SPPMMSEEstimator implements the speech-presence-probability-gated MMSE
// noise-power estimator: a closed-form SPP from a fixed a-priori SNR,
// with a stagnation guard that clips the instantaneous SPP so the
// estimate can still recover after long stretches of speech.
type SPPMMSEEstimator struct {
	realBins int
	sigma2   []float64
	pBar     []float64
}

func NewSPPMMSEEstimator(realBins int) *SPPMMSEEstimator {
	return &SPPMMSEEstimator{
		realBins: realBins,
		sigma2:   make([]float64, realBins),
		pBar:     make([]float64, realBins),
	}
}

func (e *SPPMMSEEstimator) Method() Method { return SPPMMSEMethod }

func spPProbability(y2, sigma2 float64) float64 {
	if sigma2 <= sppSigmaFloor {
		sigma2 = sppSigmaFloor
	}
	ratio := y2 / sigma2
	exponent := -(ratio) * sppFixedXiH1 / (1 + sppFixedXiH1)
	denom := 1 + (1+sppFixedXiH1)*safeExp(exponent)
	if denom <= 0 {
		return 1
	}
	return 1 / denom
}

func safeExp(x float64) float64 {
	v := math.Exp(x)
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return 0
	default:
		return v
	}
}

func (e *SPPMMSEEstimator) Run(reference, noise []float64) {
	var energy float64
	for k := 0; k < e.realBins; k++ {
		energy += reference[k]
	}
	energy /= float64(e.realBins)

	if energy < silenceThreshold {
		copy(noise, e.sigma2)
		return
	}

	for k := 0; k < e.realBins; k++ {
		y2 := reference[k]
		p := spPProbability(y2, e.sigma2[k])

		e.pBar[k] = sppSmoothSPP*e.pBar[k] + sppCurrentSPP*p
		if e.pBar[k] > sppStagnation {
			if p > sppStagnation {
				p = sppStagnation
			}
		}

		mmse := (1-p)*y2 + p*e.sigma2[k]
		e.sigma2[k] = sppAlphaPow*e.sigma2[k] + (1-sppAlphaPow)*mmse
		if e.sigma2[k] < sppSigmaFloor {
			e.sigma2[k] = sppSigmaFloor
		}
		noise[k] = e.sigma2[k]
	}
}

func (e *SPPMMSEEstimator) SetState(profile []float64) {
	copy(e.sigma2, profile)
	for i := range e.pBar {
		e.pBar[i] = 0
	}
}

func (e *SPPMMSEEstimator) UpdateSeed(profile []float64) { e.SetState(profile) }

func (e *SPPMMSEEstimator) ApplyFloor(floor []float64) {
	for k := 0; k < e.realBins; k++ {
		if e.sigma2[k] < floor[k] {
			e.sigma2[k] = floor[k]
		}
	}
}
