package denoiser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specgate/noise"
)

func noisySineInput(n int, seed uint64) []float64 {
	in := make([]float64, n)
	state := seed
	nextRand := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		return float64(state>>11) / float64(1<<53)
	}
	for i := range in {
		t := float64(i) / 44100
		in[i] = 0.3*math.Sin(2*math.Pi*1000*t) + 0.15*(2*nextRand()-1)
	}
	return in
}

func TestAdaptiveLatencyIsFrameSize(t *testing.T) {
	a, err := NewAdaptive(44100, 20)
	require.NoError(t, err)
	assert.Equal(t, 882, a.GetLatency())
}

func TestAdaptiveStaysFiniteAndBounded(t *testing.T) {
	a, err := NewAdaptive(44100, 20)
	require.NoError(t, err)

	params := DefaultParameters()
	params.ReductionAmount = ReductionAmountFromDB(20)
	require.NoError(t, a.LoadParameters(params))

	in := noisySineInput(44100, 1111)
	out := make([]float64, len(in))
	require.True(t, a.Process(in, out))

	for _, v := range out {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		require.GreaterOrEqual(t, v, -2.0)
		require.LessOrEqual(t, v, 2.0)
	}
}

func TestAdaptiveEstimatorDivergence(t *testing.T) {
	in := noisySineInput(44100*2, 54321)

	run := func(method noise.Method) []float64 {
		a, err := NewAdaptive(44100, 20)
		require.NoError(t, err)
		params := DefaultParameters()
		params.NoiseEstimationMethod = method
		params.ReductionAmount = ReductionAmountFromDB(20)
		require.NoError(t, a.LoadParameters(params))

		out := make([]float64, len(in))
		require.True(t, a.Process(in, out))
		return out
	}

	outSPP := run(noise.SPPMMSEMethod)
	outMartin := run(noise.MinimumStatistics)

	var maxDiff float64
	for i := 5000; i < len(in); i++ {
		d := math.Abs(outSPP[i] - outMartin[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	assert.Greater(t, maxDiff, 1e-4)
}
