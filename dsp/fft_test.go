package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTransformRoundTrip(t *testing.T) {
	tr, err := NewTransform(256, NoPadding, 0)
	require.NoError(t, err)

	input := make([]float64, tr.Size())
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * float64(i) / 32)
	}

	packed := make([]float64, tr.Size())
	tr.Forward(input, packed)

	output := make([]float64, tr.Size())
	tr.Backward(packed, output)

	n := float64(tr.Size())
	for i := range output {
		got := output[i] / n
		assert.InDelta(t, input[i], got, 1e-9)
	}
}

func TestTransformRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		frameSize := rapid.IntRange(4, 512).Draw(rt, "frameSize")
		tr, err := NewTransform(frameSize, NoPadding, 0)
		require.NoError(rt, err)

		input := make([]float64, tr.Size())
		for i := range input {
			input[i] = rapid.Float64Range(-1, 1).Draw(rt, "x")
		}

		packed := make([]float64, tr.Size())
		tr.Forward(input, packed)
		output := make([]float64, tr.Size())
		tr.Backward(packed, output)

		n := float64(tr.Size())
		var maxAbs float64
		for _, v := range input {
			if math.Abs(v) > maxAbs {
				maxAbs = math.Abs(v)
			}
		}
		tol := 1e-4 * math.Max(maxAbs, 1)
		for i := range output {
			assert.InDelta(rt, input[i], output[i]/n, tol)
		}
	})
}

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, 1, NextPowerOfTwo(1))
	assert.Equal(t, 2, NextPowerOfTwo(2))
	assert.Equal(t, 4, NextPowerOfTwo(3))
	assert.Equal(t, 1024, NextPowerOfTwo(1000))
}

func TestCenteredCopy(t *testing.T) {
	tr, err := NewTransform(4, PadFixedAmount, 4)
	require.NoError(t, err)
	require.Equal(t, 8, tr.Size())

	frame := []float64{1, 2, 3, 4}
	full := make([]float64, tr.Size())
	tr.CenteredCopyIn(full, frame)
	assert.Equal(t, []float64{0, 0, 1, 2, 3, 4, 0, 0}, full)

	out := make([]float64, 4)
	tr.CenteredCopyOut(out, full)
	assert.Equal(t, frame, out)
}
