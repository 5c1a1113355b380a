package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileAvailabilityMonotonicity(t *testing.T) {
	p := NewProfile(8, 5)
	assert.False(t, p.IsAvailable(RollingMean))

	reference := make([]float64, 8)
	for i := range reference {
		reference[i] = 0.5
	}

	for i := 0; i < MinBlocksAveraged; i++ {
		p.LearnAll(reference)
	}
	assert.True(t, p.IsAvailable(RollingMean))
	assert.True(t, p.IsAvailable(Median))
	assert.True(t, p.IsAvailable(Max))

	p.LearnAll(reference)
	assert.True(t, p.IsAvailable(RollingMean))
}

func TestProfileMaxAvailableAfterOneUpdate(t *testing.T) {
	p := NewProfile(4, 5)
	p.LearnAll(make([]float64, 4))
	assert.True(t, p.IsAvailable(Max))
	assert.False(t, p.IsAvailable(RollingMean))
}

func TestProfileBlocksAveragedIncrementsByOne(t *testing.T) {
	p := NewProfile(4, 5)
	reference := make([]float64, 4)
	for i := 0; i < 3; i++ {
		p.LearnAll(reference)
	}
	assert.Equal(t, 3, p.BlocksAveraged(RollingMean))
	assert.Equal(t, 3, p.BlocksAveraged(Max))
}

func TestProfileLoadThenGet(t *testing.T) {
	p := NewProfile(257, 5)
	values := make([]float64, 257)
	for i := range values {
		values[i] = 0.1 + 0.001*float64(i)
	}

	require.NoError(t, p.Set(RollingMean, values, 10))
	got, err := p.Get(RollingMean)
	require.NoError(t, err)

	for i := range values {
		assert.InDelta(t, values[i], got[i], 1e-3)
	}
	assert.Equal(t, 10, p.BlocksAveraged(RollingMean))
	assert.True(t, p.IsAvailable(RollingMean))
	assert.False(t, p.IsAvailable(Median))
	assert.False(t, p.IsAvailable(Max))
}

func TestProfileResetIdempotence(t *testing.T) {
	p := NewProfile(4, 5)
	reference := []float64{1, 2, 3, 4}
	for i := 0; i < 5; i++ {
		p.LearnAll(reference)
	}
	p.Reset()
	firstMean, _ := p.Get(RollingMean)
	firstAvailable := p.IsAvailable(RollingMean)

	p.Reset()
	secondMean, _ := p.Get(RollingMean)
	secondAvailable := p.IsAvailable(RollingMean)

	assert.Equal(t, firstMean, secondMean)
	assert.Equal(t, firstAvailable, secondAvailable)
	assert.False(t, secondAvailable)
}

func TestProfileSetRejectsSizeMismatch(t *testing.T) {
	p := NewProfile(4, 5)
	err := p.Set(RollingMean, make([]float64, 3), 1)
	assert.Error(t, err)
}

func TestProfileSetRejectsInvalidMode(t *testing.T) {
	p := NewProfile(4, 5)
	err := p.Set(Mode(9), make([]float64, 4), 1)
	assert.Error(t, err)
}
