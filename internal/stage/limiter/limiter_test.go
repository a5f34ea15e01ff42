package limiter_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/stage/limiter"
	"github.com/farcloser/cambium/internal/types"
)

func TestNewRejectsNonNegativeCeiling(t *testing.T) {
	t.Parallel()

	for _, ceiling := range []float64{0, 1, math.NaN(), math.Inf(-1)} {
		_, err := limiter.New(ceiling)
		require.Error(t, err, "ceiling %v", ceiling)
	}
}

func TestApplyClipsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	lim, err := limiter.New(-1)
	require.NoError(t, err)

	ceiling := math.Pow(10, -1.0/20)

	in, err := types.NewBuffer([][]float64{{0, 0.5, 0.95, -1.2, 3}}, 48000)
	require.NoError(t, err)

	once := lim.Apply(in)
	twice := lim.Apply(once)

	assert.Equal(t, []float64{0, 0.5, ceiling, -ceiling, ceiling}, once.Samples(0))
	assert.Equal(t, once.Samples(0), twice.Samples(0))
}

func TestTrimRemovesInterSampleOvershoot(t *testing.T) {
	t.Parallel()

	lim, err := limiter.New(-1)
	require.NoError(t, err)

	// Samples sit at ±0.85, under the ceiling, but the waveform peaks near +1.6 dBTP.
	data := make([]float64, 4410)
	for i := range data {
		data[i] = 1.2 * math.Sin(math.Pi/2*float64(i)+math.Pi/4)
	}

	buf, err := types.NewBuffer([][]float64{data}, 44100)
	require.NoError(t, err)

	clipped := lim.Apply(buf)
	measured := truepeak.Measure(clipped)
	require.Greater(t, measured, -1.0)

	trimmed := lim.Trim(clipped, measured)

	assert.InDelta(t, -1, truepeak.Measure(trimmed), 1e-6)
	assert.LessOrEqual(t, truepeak.Measure(trimmed), -1+1e-6)
}

func TestTrimUnderCeilingOnlyClips(t *testing.T) {
	t.Parallel()

	lim, err := limiter.New(-3)
	require.NoError(t, err)

	in, err := types.NewBuffer([][]float64{{0.1, -0.2}}, 44100)
	require.NoError(t, err)

	out := lim.Trim(in, -14)
	assert.Equal(t, in.Samples(0), out.Samples(0))
}
