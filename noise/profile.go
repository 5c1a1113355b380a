// Package noise implements the manual multi-mode noise profile and the
// three adaptive noise-power estimators (minimum statistics, SPP/MMSE,
// trimmed mean) behind a uniform contract.
package noise

import "fmt"

// Mode selects which of the three rolling statistics a manual profile
// applies, matching spec.md §6's noise_reduction_mode parameter.
type Mode int

const (
	RollingMean Mode = 1
	Median      Mode = 2
	Max         Mode = 3
)

// MinBlocksAveraged is the minimum number of learning updates before the
// rolling-mean and median modes become available; the max mode is
// available after a single update.
const MinBlocksAveraged = 5

// modeState holds one mode's profile array together with its learning
// bookkeeping.
type modeState struct {
	values         []float64
	blocksAveraged int
	available      bool
}

func newModeState(realBins int) *modeState {
	return &modeState{values: make([]float64, realBins)}
}

func (m *modeState) reset() {
	for i := range m.values {
		m.values[i] = 0
	}
	m.blocksAveraged = 0
	m.available = false
}

// Profile is the three-mode manual noise profile: independent rolling
// mean, (upper-envelope) median and running-max estimates, each of
// length realBins, each with its own blocks-averaged counter and
// availability flag.
type Profile struct {
	realBins int
	mean     *modeState
	median   *modeState
	max      *modeState
	trailing *TrailingBuffer
}

// NewProfile allocates a profile for realBins bins, with a median
// trailing buffer of the given depth (spec.md default 5).
func NewProfile(realBins, trailingDepth int) *Profile {
	return &Profile{
		realBins: realBins,
		mean:     newModeState(realBins),
		median:   newModeState(realBins),
		max:      newModeState(realBins),
		trailing: NewTrailingBuffer(trailingDepth, realBins),
	}
}

func (p *Profile) state(mode Mode) (*modeState, error) {
	switch mode {
	case RollingMean:
		return p.mean, nil
	case Median:
		return p.median, nil
	case Max:
		return p.max, nil
	default:
		return nil, fmt.Errorf("noise: invalid profile mode %d", mode)
	}
}

// RealBins returns the profile's bin count.
func (p *Profile) RealBins() int { return p.realBins }

// IsAvailable reports whether the given mode has accumulated enough
// updates to be used for noise reduction.
func (p *Profile) IsAvailable(mode Mode) bool {
	s, err := p.state(mode)
	if err != nil {
		return false
	}
	return s.available
}

// Get returns a borrowed read-only view of the profile for the given
// mode, valid until the next mutating call or Reset.
func (p *Profile) Get(mode Mode) ([]float64, error) {
	s, err := p.state(mode)
	if err != nil {
		return nil, err
	}
	return s.values, nil
}

// BlocksAveraged returns the learning-update count for the given mode.
func (p *Profile) BlocksAveraged(mode Mode) int {
	s, err := p.state(mode)
	if err != nil {
		return 0
	}
	return s.blocksAveraged
}

// incrementBlocksAveraged increments the counter and flips available once
// the minimum is reached (or immediately for Max).
func (s *modeState) incrementBlocksAveraged(minRequired int) {
	s.blocksAveraged++
	if s.blocksAveraged >= minRequired {
		s.available = true
	}
}

// LearnAll updates all three modes simultaneously from one reference
// power spectrum, matching the manual denoiser's learning branch, which
// always writes every mode so the caller can switch reduction modes
// without re-learning.
func (p *Profile) LearnAll(reference []float64) {
	p.learnMean(reference)
	p.learnMedian(reference)
	p.learnMax(reference)
}

func (p *Profile) learnMean(reference []float64) {
	s := p.mean
	s.blocksAveraged++
	n := float64(s.blocksAveraged)
	for k := 0; k < p.realBins; k++ {
		s.values[k] += (reference[k] - s.values[k]) / n
	}
	if s.blocksAveraged >= MinBlocksAveraged {
		s.available = true
	}
}

func (p *Profile) learnMedian(reference []float64) {
	s := p.median
	p.trailing.Push(reference)
	s.blocksAveraged++

	medianBuf := make([]float64, p.trailing.Depth())
	for k := 0; k < p.realBins; k++ {
		n := p.trailing.ColumnInto(k, medianBuf)
		m := medianOf(medianBuf[:n])
		if m > s.values[k] {
			s.values[k] = m
		}
	}
	if s.blocksAveraged >= MinBlocksAveraged {
		s.available = true
	}
}

func (p *Profile) learnMax(reference []float64) {
	s := p.max
	s.blocksAveraged++
	for k := 0; k < p.realBins; k++ {
		if reference[k] > s.values[k] {
			s.values[k] = reference[k]
		}
	}
	s.available = true
}

// Set overwrites the given mode's values by copy, setting blocksAveraged
// and marking the mode available. size must match RealBins.
func (p *Profile) Set(mode Mode, values []float64, blocksAveraged int) error {
	s, err := p.state(mode)
	if err != nil {
		return err
	}
	if len(values) != p.realBins {
		return fmt.Errorf("noise: profile size mismatch, want %d got %d", p.realBins, len(values))
	}
	copy(s.values, values)
	s.blocksAveraged = blocksAveraged
	s.available = true
	return nil
}

// Reset clears all three modes, their counters and their availability
// flags. Calling Reset twice in a row has the same effect as once.
func (p *Profile) Reset() {
	p.mean.reset()
	p.median.reset()
	p.max.reset()
	p.trailing.Reset()
}

func medianOf(values []float64) float64 {
	buf := append([]float64(nil), values...)
	insertionSort(buf)
	n := len(buf)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return buf[n/2]
	}
	return (buf[n/2-1] + buf[n/2]) / 2
}

// insertionSort sorts short slices (median-profile and trimmed-mean histories)
// without pulling in sort.Float64s's interface overhead.
func insertionSort(a []float64) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}
