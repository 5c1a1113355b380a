package denoiser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specgate/noise"
)

func TestManualLatencyIsFrameSize(t *testing.T) {
	m, err := NewManual(44100, 20)
	require.NoError(t, err)
	assert.Equal(t, 882, m.GetLatency())
}

func TestManualNoOpPassthrough(t *testing.T) {
	m, err := NewManual(44100, 20)
	require.NoError(t, err)
	require.NoError(t, m.LoadParameters(DefaultParameters()))

	n := 4000
	in := make([]float64, n)
	for i := range in {
		in[i] = 0.3 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}
	out := make([]float64, n)
	assert.True(t, m.Process(in, out))

	latency := m.GetLatency()
	for i := latency + 100; i < n; i++ {
		assert.InDelta(t, in[i-latency], out[i], 1e-6)
	}
}

func TestManualLearnThenReduceLowersRMS(t *testing.T) {
	m, err := NewManual(44100, 20)
	require.NoError(t, err)

	n := 44100 * 2
	in := make([]float64, n)
	state := uint64(54321)
	nextRand := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		return float64(state>>11) / float64(1<<53)
	}
	for i := range in {
		t := float64(i) / 44100
		in[i] = 0.3*math.Sin(2*math.Pi*1000*t) + 0.1*(2*nextRand()-1) + 0.1*math.Sin(2*math.Pi*2000*t)
	}

	learnParams := DefaultParameters()
	learnParams.LearnNoise = true
	learnParams.NoiseReductionMode = noise.RollingMean
	require.NoError(t, m.LoadParameters(learnParams))

	out := make([]float64, n)
	learnSamples := 5000
	require.True(t, m.Process(in[:learnSamples], out[:learnSamples]))

	reduceParams := DefaultParameters()
	reduceParams.NoiseReductionMode = noise.RollingMean
	reduceParams.ReductionAmount = ReductionAmountFromDB(20)
	require.NoError(t, m.LoadParameters(reduceParams))
	require.True(t, m.Process(in[learnSamples:], out[learnSamples:]))

	var inRMS, outRMS float64
	for i := learnSamples; i < n; i++ {
		inRMS += in[i] * in[i]
		outRMS += out[i] * out[i]
	}
	inRMS = math.Sqrt(inRMS / float64(n-learnSamples))
	outRMS = math.Sqrt(outRMS / float64(n-learnSamples))

	for i := learnSamples; i < n; i++ {
		require.False(t, math.IsNaN(out[i]) || math.IsInf(out[i], 0))
		require.GreaterOrEqual(t, out[i], -2.0)
		require.LessOrEqual(t, out[i], 2.0)
	}
	assert.Less(t, outRMS, 0.9*inRMS)
	assert.Greater(t, outRMS, 0.1*inRMS)
}

func TestManualProfileAccessorsRoundTrip(t *testing.T) {
	m, err := NewManual(44100, 20)
	require.NoError(t, err)

	size := m.GetNoiseProfileSize()
	assert.False(t, m.NoiseProfileAvailableForMode(noise.RollingMean))

	values := make([]float64, size)
	for i := range values {
		values[i] = 0.01 + 0.001*float64(i)
	}
	require.NoError(t, m.LoadNoiseProfileForMode(noise.RollingMean, values, 7))
	assert.True(t, m.NoiseProfileAvailableForMode(noise.RollingMean))
	assert.Equal(t, 7, m.GetNoiseProfileBlocksAveragedForMode(noise.RollingMean))

	got, err := m.GetNoiseProfileForMode(noise.RollingMean)
	require.NoError(t, err)
	for i := range values {
		assert.InDelta(t, values[i], got[i], 1e-9)
	}

	m.ResetNoiseProfile()
	assert.False(t, m.NoiseProfileAvailableForMode(noise.RollingMean))
}
