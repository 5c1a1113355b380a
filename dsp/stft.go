package dsp

import "fmt"

// FrameCallback is invoked once per analysis frame with the packed
// half-spectrum buffer (length transform.Size()); it may mutate the
// buffer in place, and the STFT frontend immediately runs the backward
// transform on whatever it contains on return.
type FrameCallback func(packed []float64)

// StreamProcessor is the STFT streaming frontend: it assembles input
// samples into overlapping analysis frames, invokes a caller-supplied
// frame callback at each hop boundary, and reconstructs output samples by
// windowed overlap-add. It never learns of the algorithm running inside
// the callback, keeping transport and denoising algorithm independent.
type StreamProcessor struct {
	transform *Transform
	window    *WindowPair
	hop       int
	frameSize int

	inputBuf   []float64 // length frameSize + hop, sliding window assembly
	outputAcc  []float64 // length frameSize + hop, overlap-add accumulator
	writePos   int       // next write position in inputBuf
	readPos    int       // next read position in outputAcc
	samplesTillFrame int

	fftTime   []float64 // scratch, length N
	fftPacked []float64 // scratch, length N
	frameOut  []float64 // scratch, length frameSize
	analyzed  []float64 // scratch, length frameSize
}

// NewStreamProcessor builds a frontend for the given transform and window
// pair, with the given hop size.
func NewStreamProcessor(transform *Transform, window *WindowPair, hop int) (*StreamProcessor, error) {
	if transform == nil || window == nil {
		return nil, fmt.Errorf("dsp: transform and window must not be nil")
	}
	if hop <= 0 {
		return nil, fmt.Errorf("dsp: hop must be positive, got %d", hop)
	}
	frameSize := transform.FrameSize()
	bufLen := frameSize + hop

	s := &StreamProcessor{
		transform:        transform,
		window:           window,
		hop:              hop,
		frameSize:        frameSize,
		inputBuf:         make([]float64, bufLen),
		outputAcc:        make([]float64, bufLen),
		samplesTillFrame: hop,
		fftTime:          make([]float64, transform.Size()),
		fftPacked:        make([]float64, transform.Size()),
		frameOut:         make([]float64, frameSize),
		analyzed:         make([]float64, frameSize),
	}
	return s, nil
}

// Latency reports the fixed output delay in samples: one full analysis
// frame.
func (s *StreamProcessor) Latency() int { return s.frameSize }

// Process pushes n samples from in into the frontend and writes n
// reconstructed samples into out (which may be the same length as in and
// must not overlap it in a way the caller cares about within this call).
// It returns false without side effects if in/out are nil, mismatched in
// length, or n is zero.
func (s *StreamProcessor) Process(in, out []float64, cb FrameCallback) bool {
	n := len(in)
	if n == 0 || in == nil || out == nil || len(out) != n {
		return false
	}

	for i := 0; i < n; i++ {
		// Shift the sliding window by one: drop the oldest sample,
		// append the newest at the tail.
		copy(s.inputBuf, s.inputBuf[1:])
		s.inputBuf[len(s.inputBuf)-1] = in[i]

		out[i] = s.outputAcc[0]
		copy(s.outputAcc, s.outputAcc[1:])
		s.outputAcc[len(s.outputAcc)-1] = 0

		s.samplesTillFrame--
		if s.samplesTillFrame == 0 {
			s.samplesTillFrame = s.hop
			s.runFrame(cb)
		}
	}
	return true
}

func (s *StreamProcessor) runFrame(cb FrameCallback) {
	// The most recent frameSize samples are the tail of inputBuf.
	window := s.inputBuf[len(s.inputBuf)-s.frameSize:]

	s.window.ApplyAnalysis(s.analyzed, window)

	s.transform.CenteredCopyIn(s.fftTime, s.analyzed)
	s.transform.Forward(s.fftTime, s.fftPacked)

	if cb != nil {
		cb(s.fftPacked)
	}

	s.transform.Backward(s.fftPacked, s.fftTime)
	n := float64(s.transform.Size())
	for i := range s.fftTime {
		s.fftTime[i] /= n
	}
	s.transform.CenteredCopyOut(s.frameOut, s.fftTime)
	s.window.ApplySynthesis(s.frameOut, s.frameOut)

	// Overlap-add the synthesized frame at the head of the accumulator:
	// slot 0 is the next sample to be emitted, so frame sample i leaves
	// exactly frameSize samples after the input sample it was taken from.
	accStart := 0
	scale := 1.0
	if s.window.Scale > Epsilon {
		scale = 1.0 / s.window.Scale
	}
	for i := 0; i < s.frameSize; i++ {
		s.outputAcc[accStart+i] += s.frameOut[i] * scale
	}
}

// Reset clears all internal buffers, as if newly constructed.
func (s *StreamProcessor) Reset() {
	for i := range s.inputBuf {
		s.inputBuf[i] = 0
	}
	for i := range s.outputAcc {
		s.outputAcc[i] = 0
	}
	s.samplesTillFrame = s.hop
}
