package noise

import "math"

const (
	brandtDefaultPercentile = 0.1
	estimatorMinHistory     = 16
	estimatorMinDurationMs  = 8.0
	defaultHistoryDurationMs = 1000.0
)

// CalculateCorrectionFactor returns the bias-correction multiplier for a
// trimmed mean over the lowest fraction p of a sorted history, per
// Brandt (2017): 1 / (1 + ((1-p)/p)*ln(1-p)).
func CalculateCorrectionFactor(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 1
	}
	return 1 / (1 + ((1-p)/p)*math.Log(1-p))
}

// TrimmedMeanEstimator implements the Brandt (2017) trimmed-mean noise
// estimator: per bin, a circular history of recent power observations is
// sorted each frame and the mean of its lowest percentile is taken as the
// noise estimate, bias-corrected. An Anderson-Darling-like confidence
// gate (see SPEC_FULL.md §4.15 — a supplement, not present in the
// available reference source for this estimator) only commits the
// update when five trial percentiles agree closely enough.
type TrimmedMeanEstimator struct {
	realBins         int
	historySize      int
	percentile       float64
	correctionFactor float64

	history    [][]float64 // realBins x historySize
	writeIdx   []int
	filled     []int
	committed  []float64
	sortBuf    []float64
	trialMeans []float64
}

// NewTrimmedMeanEstimator derives the history size from the configured
// frame duration (one hop, 1000*hop/sampleRate milliseconds, floored at
// estimatorMinDurationMs) and clamps it to at least estimatorMinHistory.
func NewTrimmedMeanEstimator(realBins, sampleRate, hop int) *TrimmedMeanEstimator {
	frameDurationMs := estimatorMinDurationMs
	if sampleRate > 0 {
		d := 1000.0 * float64(hop) / float64(sampleRate)
		if d > frameDurationMs {
			frameDurationMs = d
		}
	}
	historySize := int(defaultHistoryDurationMs / frameDurationMs)
	if historySize < estimatorMinHistory {
		historySize = estimatorMinHistory
	}

	history := make([][]float64, realBins)
	for k := range history {
		history[k] = make([]float64, historySize)
	}

	return &TrimmedMeanEstimator{
		realBins:         realBins,
		historySize:      historySize,
		percentile:       brandtDefaultPercentile,
		correctionFactor: CalculateCorrectionFactor(brandtDefaultPercentile),
		history:          history,
		writeIdx:         make([]int, realBins),
		filled:           make([]int, realBins),
		committed:        make([]float64, realBins),
		sortBuf:          make([]float64, historySize),
		trialMeans:       make([]float64, 5),
	}
}

func (e *TrimmedMeanEstimator) Method() Method { return TrimmedMeanMethod }

func trimmedMeanOf(sorted []float64, trimFraction float64) float64 {
	n := len(sorted)
	trimCount := int(float64(n) * trimFraction)
	if trimCount < 1 {
		trimCount = 1
	}
	if trimCount > n {
		trimCount = n
	}
	var sum float64
	for i := 0; i < trimCount; i++ {
		sum += sorted[i]
	}
	return sum / float64(trimCount)
}

var adTrialPercentiles = [5]float64{0.05, 0.1, 0.15, 0.2, 0.25}

// andersonDarlingNorm computes the five trial trimmed means into
// e.trialMeans and returns their normalized dispersion statistic:
// stddev(trialMeans) / mean(trialMeans). The update should only commit
// when 1 - adNorm >= 0.5.
func (e *TrimmedMeanEstimator) andersonDarlingNorm(sorted []float64) float64 {
	for i, p := range adTrialPercentiles {
		e.trialMeans[i] = trimmedMeanOf(sorted, p)
	}

	var mean float64
	for _, v := range e.trialMeans {
		mean += v
	}
	mean /= float64(len(e.trialMeans))

	var variance float64
	for _, v := range e.trialMeans {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(e.trialMeans))

	return Clamp01(math.Sqrt(variance) / (mean + 1e-12))
}

// Clamp01 restricts x to [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func (e *TrimmedMeanEstimator) Run(reference, noise []float64) {
	var energy float64
	for k := 0; k < e.realBins; k++ {
		energy += reference[k]
	}
	energy /= float64(e.realBins)

	if energy < silenceThreshold {
		copy(noise, e.committed)
		return
	}

	for k := 0; k < e.realBins; k++ {
		e.history[k][e.writeIdx[k]] = reference[k]
		e.writeIdx[k] = (e.writeIdx[k] + 1) % e.historySize
		if e.filled[k] < e.historySize {
			e.filled[k]++
		}

		n := e.filled[k]
		buf := e.sortBuf[:n]
		copy(buf, e.history[k][:n])
		insertionSort(buf)

		adNorm := e.andersonDarlingNorm(buf)
		if 1-adNorm >= 0.5 {
			e.committed[k] = trimmedMeanOf(buf, e.percentile) * e.correctionFactor
		}
		noise[k] = e.committed[k]
	}
}

func (e *TrimmedMeanEstimator) SetState(profile []float64) {
	for k := 0; k < e.realBins; k++ {
		seed := profile[k] / e.correctionFactor
		for i := 0; i < e.historySize; i++ {
			e.history[k][i] = seed
		}
		e.filled[k] = e.historySize
		e.writeIdx[k] = 0
		e.committed[k] = profile[k]
	}
}

func (e *TrimmedMeanEstimator) UpdateSeed(profile []float64) { e.SetState(profile) }

func (e *TrimmedMeanEstimator) ApplyFloor(floor []float64) {
	for k := 0; k < e.realBins; k++ {
		f := floor[k] / e.correctionFactor
		for i := 0; i < e.historySize; i++ {
			if e.history[k][i] < f {
				e.history[k][i] = f
			}
		}
		if e.committed[k] < floor[k] {
			e.committed[k] = floor[k]
		}
	}
}
