package denoiser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specgate/noise"
)

func TestTwoDLatencyIncludesLookAhead(t *testing.T) {
	d, err := NewTwoD(44100, 20)
	require.NoError(t, err)

	base, err := NewManual(44100, 20)
	require.NoError(t, err)

	assert.Greater(t, d.GetLatency(), base.GetLatency())
	assert.Equal(t, base.GetLatency()+4*d.c.hop, d.GetLatency())
}

func TestTwoDStaysFiniteDuringFillAndAfter(t *testing.T) {
	d, err := NewTwoD(44100, 20)
	require.NoError(t, err)

	learnParams := DefaultParameters()
	learnParams.LearnNoise = true
	require.NoError(t, d.LoadParameters(learnParams))

	n := 44100
	in := noisySineInput(n, 777)
	out := make([]float64, n)

	learnSamples := 5000
	require.True(t, d.Process(in[:learnSamples], out[:learnSamples]))

	reduceParams := DefaultParameters()
	reduceParams.ReductionAmount = ReductionAmountFromDB(15)
	require.NoError(t, d.LoadParameters(reduceParams))
	require.True(t, d.Process(in[learnSamples:], out[learnSamples:]))

	for _, v := range out {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		require.GreaterOrEqual(t, v, -2.0)
		require.LessOrEqual(t, v, 2.0)
	}
}

func TestTwoDProfileAccessorsAvailable(t *testing.T) {
	d, err := NewTwoD(44100, 20)
	require.NoError(t, err)

	size := d.GetNoiseProfileSize()
	values := make([]float64, size)
	for i := range values {
		values[i] = 0.02
	}
	require.NoError(t, d.LoadNoiseProfileForMode(noise.Max, values, 3))
	assert.True(t, d.NoiseProfileAvailableForMode(noise.Max))
	got, err := d.GetNoiseProfileForMode(noise.Max)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, got[0], 1e-9)
}
