package denoiser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specgate/noise"
)

// TestBoundaryBlockSizeEquivalence checks that splitting a single Process
// call into many small ones produces byte-identical output to one large
// call, since the STFT frontend's internal state must not depend on how
// callers chunk their input.
func TestBoundaryBlockSizeEquivalence(t *testing.T) {
	in := noisySineInput(20000, 2468)
	params := DefaultParameters()
	params.ReductionAmount = ReductionAmountFromDB(10)

	whole, err := NewAdaptive(44100, 20)
	require.NoError(t, err)
	require.NoError(t, whole.LoadParameters(params))
	wholeOut := make([]float64, len(in))
	require.True(t, whole.Process(in, wholeOut))

	chunked, err := NewAdaptive(44100, 20)
	require.NoError(t, err)
	require.NoError(t, chunked.LoadParameters(params))
	chunkedOut := make([]float64, len(in))

	pos := 0
	chunkSizes := []int{1, 3, 7, 13, 97, 256, 1000}
	ci := 0
	for pos < len(in) {
		size := chunkSizes[ci%len(chunkSizes)]
		ci++
		if pos+size > len(in) {
			size = len(in) - pos
		}
		ok := chunked.Process(in[pos:pos+size], chunkedOut[pos:pos+size])
		require.True(t, ok)
		pos += size
	}

	for i := range in {
		assert.InDelta(t, wholeOut[i], chunkedOut[i], 1e-9)
	}
}

// TestResidualListenDuality checks that a normal-mode output and a
// residual-listen output sum back to (approximately) the original input,
// since the mixer's two modes are in*gain and in*(1-gain) respectively.
func TestResidualListenDuality(t *testing.T) {
	in := noisySineInput(20000, 13579)

	normalParams := DefaultParameters()
	normalParams.ReductionAmount = ReductionAmountFromDB(20)

	residualParams := normalParams
	residualParams.ResidualListen = true

	normal, err := NewManual(44100, 20)
	require.NoError(t, err)
	profile := make([]float64, normal.GetNoiseProfileSize())
	for k := range profile {
		profile[k] = 1e-3
	}
	require.NoError(t, normal.LoadNoiseProfileForMode(noise.RollingMean, profile, 10))
	require.NoError(t, normal.LoadParameters(normalParams))
	normalOut := make([]float64, len(in))
	require.True(t, normal.Process(in, normalOut))

	residual, err := NewManual(44100, 20)
	require.NoError(t, err)
	require.NoError(t, residual.LoadNoiseProfileForMode(noise.RollingMean, profile, 10))
	require.NoError(t, residual.LoadParameters(residualParams))
	residualOut := make([]float64, len(in))
	require.True(t, residual.Process(in, residualOut))

	latency := normal.GetLatency()
	for i := latency + 200; i < len(in); i++ {
		sum := normalOut[i] + residualOut[i]
		assert.InDelta(t, in[i-latency], sum, 1e-6)
	}
}

// TestNoOpConfigurationLatencyExactness matches spec.md §8's latency
// invariant: with no learned profile and zero reduction amount, output
// sample i equals input sample i-latency up to floating-point round-off.
func TestNoOpConfigurationLatencyExactness(t *testing.T) {
	m, err := NewManual(44100, 20)
	require.NoError(t, err)
	require.NoError(t, m.LoadParameters(DefaultParameters()))

	in := noisySineInput(8000, 9999)
	out := make([]float64, len(in))
	require.True(t, m.Process(in, out))

	latency := m.GetLatency()
	for i := latency; i < len(in); i++ {
		assert.InDelta(t, in[i-latency], out[i], 1e-9)
	}
	for i := 0; i < latency; i++ {
		assert.InDelta(t, 0, out[i], 1e-9)
	}
}
