package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoOpStream(t *testing.T, frameSize, hop int) *StreamProcessor {
	tr, err := NewTransform(frameSize, NoPadding, 0)
	require.NoError(t, err)
	win := NewWindowPair(HannWindow, tr.FrameSize(), hop)
	sp, err := NewStreamProcessor(tr, win, hop)
	require.NoError(t, err)
	return sp
}

func TestStreamProcessorLatency(t *testing.T) {
	sp := newNoOpStream(t, 882, 220)
	assert.Equal(t, 882, sp.Latency())
}

func TestStreamProcessorRejectsInvalid(t *testing.T) {
	sp := newNoOpStream(t, 16, 4)
	out := make([]float64, 4)
	assert.False(t, sp.Process(nil, out, nil))
	assert.False(t, sp.Process(make([]float64, 4), make([]float64, 3), nil))
	assert.False(t, sp.Process(make([]float64, 0), make([]float64, 0), nil))
}

func TestStreamProcessorPassthroughFinite(t *testing.T) {
	sp := newNoOpStream(t, 64, 16)
	in := make([]float64, 1000)
	for i := range in {
		in[i] = 0.5
	}
	out := make([]float64, len(in))

	ok := sp.Process(in, out, func(packed []float64) {})
	assert.True(t, ok)
	for _, v := range out {
		assert.False(t, v != v, "output must never be NaN")
	}
}
