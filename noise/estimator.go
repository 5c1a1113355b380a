package noise

import "fmt"

// Method identifies one of the three adaptive noise-power estimators,
// matching spec.md §6's noise_estimation_method parameter values.
type Method int

const (
	SPPMMSEMethod       Method = 0
	TrimmedMeanMethod   Method = 1
	MinimumStatistics   Method = 2
)

// Estimator is the uniform contract all three adaptive noise-power
// estimators implement, per spec.md §4.4. Written fresh rather than
// copied from the reference's older/incomplete dispatcher (see
// SPEC_FULL.md §9, resolution 1): the concrete variant is chosen at
// construction time and swapped by the caller on method change rather
// than dispatched through a runtime union.
type Estimator interface {
	// Run updates the estimator from one frame's reference power
	// spectrum and writes the current noise estimate into noise.
	Run(reference, noise []float64)
	// SetState seeds the estimator's internal history from an external
	// profile (e.g. a manual noise profile), so switching estimator
	// methods does not require relearning from silence.
	SetState(profile []float64)
	// UpdateSeed is an alias of SetState, matching spec.md's naming of
	// both operations against the same internal seeding behaviour.
	UpdateSeed(profile []float64)
	// ApplyFloor raises every history element (and the current output)
	// below floor[k] up to floor[k], letting the manual profile act as a
	// hard lower bound on the adaptive estimate.
	ApplyFloor(floor []float64)
	// Method reports which algorithm this estimator implements.
	Method() Method
}

// New constructs the estimator for the given method, sample rate, hop
// size and bin count.
func New(method Method, realBins, sampleRate, hop int) (Estimator, error) {
	switch method {
	case SPPMMSEMethod:
		return NewSPPMMSEEstimator(realBins), nil
	case TrimmedMeanMethod:
		return NewTrimmedMeanEstimator(realBins, sampleRate, hop), nil
	case MinimumStatistics:
		return NewMartinEstimator(realBins), nil
	default:
		return nil, fmt.Errorf("noise: invalid estimator method %d", method)
	}
}
