package noise

import "math"

const (
	martinSubwinCount = 8    // D
	martinSubwinLen   = 24   // L, frames per sub-window
	martinSmoothAlpha = 0.9  // first-order PSD smoothing factor
	martinBiasCorr    = 1.5  // bias correction applied on output only
	silenceThreshold  = 1e-8
)

// MartinEstimator implements the Minimum Statistics noise-power estimator
// (Martin, 2001): a smoothed PSD, a running sub-window minimum, and a
// circular history of sub-window minima whose minimum-over-D, bias
// corrected, is the noise estimate. The estimate never exceeds the
// smoothed PSD, so it lower-bounds the slow signal envelope; a silence
// gate freezes updates (but not output recomputation) below
// SilenceThreshold average frame energy.
type MartinEstimator struct {
	realBins int

	smoothedPSD      []float64
	currentSubwinMin []float64
	history          [][]float64 // D slots, each realBins
	historyHead      int
	frameCounter     int
	initialized      bool
}

func NewMartinEstimator(realBins int) *MartinEstimator {
	history := make([][]float64, martinSubwinCount)
	for i := range history {
		history[i] = make([]float64, realBins)
	}
	return &MartinEstimator{
		realBins:         realBins,
		smoothedPSD:      make([]float64, realBins),
		currentSubwinMin: make([]float64, realBins),
		history:          history,
	}
}

func (m *MartinEstimator) Method() Method { return MinimumStatistics }

func (m *MartinEstimator) seedAll(value []float64) {
	for k := 0; k < m.realBins; k++ {
		v := value[k] / martinBiasCorr
		m.smoothedPSD[k] = v
		m.currentSubwinMin[k] = v
		for d := 0; d < martinSubwinCount; d++ {
			m.history[d][k] = v
		}
	}
	m.initialized = true
	m.frameCounter = 0
}

func (m *MartinEstimator) Run(reference, noise []float64) {
	if !m.initialized {
		m.seedAll(reference)
	}

	var energy float64
	for k := 0; k < m.realBins; k++ {
		energy += reference[k]
	}
	energy /= float64(m.realBins)

	if energy >= silenceThreshold {
		for k := 0; k < m.realBins; k++ {
			m.smoothedPSD[k] = martinSmoothAlpha*m.smoothedPSD[k] + (1-martinSmoothAlpha)*reference[k]
			if m.smoothedPSD[k] < m.currentSubwinMin[k] {
				m.currentSubwinMin[k] = m.smoothedPSD[k]
			}
		}

		m.frameCounter++
		if m.frameCounter >= martinSubwinLen {
			m.frameCounter = 0
			m.historyHead = (m.historyHead + 1) % martinSubwinCount
			copy(m.history[m.historyHead], m.currentSubwinMin)
			copy(m.currentSubwinMin, m.smoothedPSD)
		}
	}

	for k := 0; k < m.realBins; k++ {
		min := m.currentSubwinMin[k]
		for d := 0; d < martinSubwinCount; d++ {
			if m.history[d][k] < min {
				min = m.history[d][k]
			}
		}
		noise[k] = min * martinBiasCorr
	}
}

func (m *MartinEstimator) SetState(profile []float64) { m.seedAll(profile) }

func (m *MartinEstimator) UpdateSeed(profile []float64) { m.SetState(profile) }

func (m *MartinEstimator) ApplyFloor(floor []float64) {
	for k := 0; k < m.realBins; k++ {
		f := floor[k] / martinBiasCorr
		m.smoothedPSD[k] = math.Max(m.smoothedPSD[k], f)
		m.currentSubwinMin[k] = math.Max(m.currentSubwinMin[k], f)
		for d := 0; d < martinSubwinCount; d++ {
			m.history[d][k] = math.Max(m.history[d][k], f)
		}
	}
}
