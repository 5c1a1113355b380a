package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// PaddingPolicy selects how the FFT length N is derived from the
// requested analysis frame size.
type PaddingPolicy int

const (
	// NoPadding rounds the frame size up to the next even length.
	NoPadding PaddingPolicy = iota
	// PadToPowerOfTwo rounds the frame size up to the next power of two.
	PadToPowerOfTwo
	// PadFixedAmount adds a fixed number of zero samples (rounded even).
	PadFixedAmount
)

// Transform is a real-to-real forward/backward FFT of length N, operating
// on the packed half-spectrum layout used throughout this module: index 0
// is DC, indices 1..N/2-1 hold real parts, index N/2 is Nyquist (real
// only), and indices N/2+1..N-1 hold the imaginary parts of the same bins
// mirrored. The underlying complex arithmetic is delegated to
// gonum.org/v1/gonum/dsp/fourier, which already implements exactly this
// one-sided real transform; Transform only repacks its []complex128
// result into the spec's flat []float64 layout.
type Transform struct {
	frameSize int
	size      int // N
	realBins  int // N/2+1
	fft       *fourier.FFT
	coeffs    []complex128
}

// NewTransform derives N from frameSize and the padding policy, and builds
// the underlying FFT plan. fixedAmount is only consulted for
// PadFixedAmount.
func NewTransform(frameSize int, policy PaddingPolicy, fixedAmount int) (*Transform, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("dsp: frame size must be positive, got %d", frameSize)
	}

	var n int
	switch policy {
	case PadToPowerOfTwo:
		n = NextPowerOfTwo(frameSize)
	case PadFixedAmount:
		if fixedAmount < 0 {
			return nil, fmt.Errorf("dsp: fixed padding amount must be non-negative, got %d", fixedAmount)
		}
		n = NextEven(frameSize + fixedAmount)
	default:
		n = NextEven(frameSize)
	}

	return &Transform{
		frameSize: frameSize,
		size:      n,
		realBins:  n/2 + 1,
		fft:       fourier.NewFFT(n),
		coeffs:    make([]complex128, n/2+1),
	}, nil
}

// Size returns N, the FFT length.
func (t *Transform) Size() int { return t.size }

// FrameSize returns the analysis frame length this transform was built for.
func (t *Transform) FrameSize() int { return t.frameSize }

// RealBins returns N/2+1.
func (t *Transform) RealBins() int { return t.realBins }

// CenteredCopyIn copies frame (length FrameSize()) into dst (length
// Size()), centered so that zero-padding is symmetric around the frame,
// per the reference's centered-copy load helper.
func (t *Transform) CenteredCopyIn(dst, frame []float64) {
	for i := range dst {
		dst[i] = 0
	}
	offset := (t.size - t.frameSize) / 2
	copy(dst[offset:offset+t.frameSize], frame)
}

// CenteredCopyOut is the inverse of CenteredCopyIn: it extracts the
// original frame region back out of a full-length buffer.
func (t *Transform) CenteredCopyOut(frame, src []float64) {
	offset := (t.size - t.frameSize) / 2
	copy(frame, src[offset:offset+t.frameSize])
}

// Forward computes the real FFT of timeDomain (length Size()) and writes
// the packed half-spectrum into packed (length Size()).
func (t *Transform) Forward(timeDomain, packed []float64) {
	t.fft.Coefficients(t.coeffs, timeDomain)
	n := t.size
	packed[0] = real(t.coeffs[0])
	for k := 1; k < n/2; k++ {
		packed[k] = real(t.coeffs[k])
		packed[n-k] = imag(t.coeffs[k])
	}
	packed[n/2] = real(t.coeffs[n/2])
}

// Backward computes the inverse real FFT of the packed half-spectrum
// (length Size()) and writes the result into timeDomain (length Size()).
// The result is scaled by N, matching gonum's FFTPACK-derived convention;
// callers divide by N when storing, per the transform's documented
// invariant.
func (t *Transform) Backward(packed, timeDomain []float64) {
	n := t.size
	t.coeffs[0] = complex(packed[0], 0)
	for k := 1; k < n/2; k++ {
		t.coeffs[k] = complex(packed[k], packed[n-k])
	}
	t.coeffs[n/2] = complex(packed[n/2], 0)
	t.fft.Sequence(timeDomain, t.coeffs)
}
