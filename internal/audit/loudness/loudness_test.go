package loudness_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/cambium/internal/audit/loudness"
	"github.com/farcloser/cambium/internal/types"
)

func sine(t *testing.T, freq, amplitude, seconds float64, rate, channels int) *types.Buffer {
	t.Helper()

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, int(seconds*float64(rate)))
		for i := range data[ch] {
			data[ch][i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		}
	}

	buf, err := types.NewBuffer(data, rate)
	require.NoError(t, err)

	return buf
}

func TestNewMeterRejectsUncalibratedRates(t *testing.T) {
	t.Parallel()

	for _, rate := range []int{8000, 22050, 96000} {
		_, err := loudness.NewMeter(rate)
		require.ErrorIs(t, err, loudness.ErrUnsupportedSampleRate)
	}
}

func TestIntegratedFullScaleSine(t *testing.T) {
	t.Parallel()

	for _, rate := range []int{44100, 48000} {
		meter, err := loudness.NewMeter(rate)
		require.NoError(t, err)

		reading, err := meter.Integrated(sine(t, 1000, 1, 3, rate, 1))
		require.NoError(t, err)
		require.True(t, reading.OK())
		assert.InDelta(t, -3.01, reading.LUFS, 0.1, "rate %d", rate)
	}
}

func TestIntegratedTracksGain(t *testing.T) {
	t.Parallel()

	meter, err := loudness.NewMeter(48000)
	require.NoError(t, err)

	loud, err := meter.Integrated(sine(t, 1000, 0.5, 3, 48000, 1))
	require.NoError(t, err)

	quiet, err := meter.Integrated(sine(t, 1000, 0.05, 3, 48000, 1))
	require.NoError(t, err)

	assert.InDelta(t, 20, loud.LUFS-quiet.LUFS, 0.01)
}

func TestIntegratedStereoSumsChannels(t *testing.T) {
	t.Parallel()

	meter, err := loudness.NewMeter(44100)
	require.NoError(t, err)

	mono, err := meter.Integrated(sine(t, 1000, 0.25, 2, 44100, 1))
	require.NoError(t, err)

	stereo, err := meter.Integrated(sine(t, 1000, 0.25, 2, 44100, 2))
	require.NoError(t, err)

	assert.InDelta(t, 3.01, stereo.LUFS-mono.LUFS, 0.01)
}

func TestIntegratedDegenerate(t *testing.T) {
	t.Parallel()

	meter, err := loudness.NewMeter(44100)
	require.NoError(t, err)

	silent, err := types.Silence(2, 44100, 44100)
	require.NoError(t, err)

	reading, err := meter.Integrated(silent)
	require.NoError(t, err)
	assert.False(t, reading.OK())
	assert.True(t, math.IsInf(reading.LUFS, -1))

	// Shorter than one 400 ms block.
	reading, err = meter.Integrated(sine(t, 1000, 1, 0.2, 44100, 1))
	require.NoError(t, err)
	assert.Equal(t, types.LoudnessDegenerate, reading.Status)
	assert.True(t, math.IsInf(reading.LUFS, -1))
}

func TestIntegratedRateMismatch(t *testing.T) {
	t.Parallel()

	meter, err := loudness.NewMeter(48000)
	require.NoError(t, err)

	reading, err := meter.Integrated(sine(t, 1000, 1, 1, 44100, 1))
	require.ErrorIs(t, err, types.ErrMeasurement)
	assert.False(t, reading.OK())
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	meter, err := loudness.NewMeter(44100)
	require.NoError(t, err)

	result, err := meter.Analyze(sine(t, 1000, 0.5, 7, 44100, 2))
	require.NoError(t, err)

	assert.True(t, result.Integrated.OK())
	// A steady tone has no loudness range and a crest close to 3 dB.
	assert.InDelta(t, 0, result.LoudnessRange, 0.1)
	assert.InDelta(t, 3.01, result.DRValue, 0.1)
	assert.GreaterOrEqual(t, result.MomentaryMax, result.Integrated.LUFS-0.1)
}
