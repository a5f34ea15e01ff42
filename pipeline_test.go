package cambium_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/audit/loudness"
	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/stage/dynamics"
	"github.com/farcloser/cambium/internal/stage/normalize"
	"github.com/farcloser/cambium/internal/types"
)

const peakSlack = 1e-6

func newPipeline(t *testing.T, preset cambium.Preset) *cambium.Pipeline {
	t.Helper()

	pipeline, err := cambium.NewPipeline(preset.Config(), cambium.DefaultOptions())
	require.NoError(t, err)

	return pipeline
}

func TestNewPipelineRejectsUnmeteredRate(t *testing.T) {
	t.Parallel()

	opts := cambium.DefaultOptions()
	opts.WorkingRate = 22050

	_, err := cambium.NewPipeline(cambium.PresetDefault.Config(), opts)
	require.ErrorIs(t, err, cambium.ErrInvalidConfig)
}

// Every preset, on every kind of material, ends at or under its ceiling.
func TestProcessRespectsCeiling(t *testing.T) {
	t.Parallel()

	material := map[string]signal{
		"loud stereo":        {freq: 440, amplitude: 0.9, seconds: 3, rate: 44100, channels: 2},
		"quiet mono":         {freq: 1000, amplitude: dbfs(-40), seconds: 3, rate: 44100, channels: 1},
		"clicks over tone":   {freq: 1000, amplitude: dbfs(-30), seconds: 3, rate: 44100, channels: 2, clickEvery: 22050},
		"high tone at 48k":   {freq: 9000, amplitude: 0.99, seconds: 2, rate: 48000, channels: 2},
		"near nyquist burst": {freq: 11025, amplitude: 0.7, seconds: 1, rate: 44100, channels: 1},
	}

	for _, preset := range cambium.Presets() {
		pipeline := newPipeline(t, preset)
		ceiling := preset.Config().TruePeakDbtp

		for name, sig := range material {
			out, result, err := pipeline.Process(context.Background(), sig.buffer(t))
			require.NoError(t, err, "%s / %s", preset, name)

			assert.LessOrEqual(t, truepeak.Measure(out), ceiling+peakSlack, "%s / %s", preset, name)
			assert.LessOrEqual(t, result.Final.PeakDbtp, ceiling+peakSlack, "%s / %s", preset, name)
			assert.Equal(t, 44100, out.SampleRate(), "%s / %s", preset, name)
		}
	}
}

func TestProcessDirectNormalization(t *testing.T) {
	t.Parallel()

	in := signal{freq: 1000, amplitude: dbfs(-6), seconds: 5, rate: 44100, channels: 1}.buffer(t)

	out, result, err := newPipeline(t, cambium.PresetSuno).Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, normalize.PathDirect, result.Normalization.Path)
	assert.InDelta(t, -10, result.Final.LUFS, 0.5)
	assert.LessOrEqual(t, truepeak.Measure(out), -1.0)
	assert.False(t, result.PeakRechecked)

	meter, err := loudness.NewMeter(44100)
	require.NoError(t, err)

	reading, err := meter.Integrated(out)
	require.NoError(t, err)
	assert.InDelta(t, -10, reading.LUFS, 0.5)
}

func TestProcessSafeNormalization(t *testing.T) {
	t.Parallel()

	// Full scale clicks over a quiet tone: the gain needed for -10 LUFS would put the clicks
	// far over the ceiling.
	in := signal{freq: 1000, amplitude: dbfs(-30), seconds: 5, rate: 44100, channels: 1, clickEvery: 22050}.buffer(t)

	out, result, err := newPipeline(t, cambium.PresetSuno).Process(context.Background(), in)
	require.NoError(t, err)

	report := result.Normalization
	assert.Contains(t, []normalize.Path{normalize.PathSafe, normalize.PathSafeCorrected}, report.Path)
	assert.Greater(t, report.TestPeakDbtp, -1.0)
	assert.InDelta(t, -1.5, report.SafePeakDbtp, 1e-9)
	assert.LessOrEqual(t, math.Abs(report.CorrectionDb), 2.0)

	// Loudness misses the target, within the bounded correction.
	assert.Greater(t, math.Abs(result.Final.LUFS+10), 0.5)
	assert.InDelta(t, report.SecondaryLUFS+report.CorrectionDb, result.Final.LUFS, 0.5)
	assert.LessOrEqual(t, truepeak.Measure(out), -1.0+peakSlack)
}

func TestProcessAggressiveStereo(t *testing.T) {
	t.Parallel()

	in := signal{freq: 220, amplitude: 0.8, seconds: 3, rate: 44100, channels: 2}.buffer(t)
	config := cambium.PresetAggressive.Config()

	out, result, err := newPipeline(t, cambium.PresetAggressive).Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Channels())
	assert.Equal(t, []cambium.Stage{
		cambium.StageHighPass, cambium.StageNormalize, cambium.StageCompression, cambium.StageLimiter,
	}, result.Stages[:4])
	assert.Contains(t, result.PerStage, cambium.StageCompression)

	// The compressor reduces every sample above its threshold and keeps its sign.
	comp, err := dynamics.New(config.CompThresholdDb, config.CompRatio)
	require.NoError(t, err)

	compressed := comp.Apply(in)

	for ch := range in.Channels() {
		for i, x := range in.Samples(ch) {
			y := compressed.Samples(ch)[i]
			if 20*math.Log10(math.Abs(x)) > config.CompThresholdDb {
				require.Less(t, math.Abs(y), math.Abs(x))
			}

			require.Equal(t, math.Signbit(x), math.Signbit(y))
		}
	}
}

func TestProcessTrace(t *testing.T) {
	t.Parallel()

	in := signal{freq: 1000, amplitude: 0.5, seconds: 1, rate: 44100, channels: 1}.buffer(t)

	_, result, err := newPipeline(t, cambium.PresetDefault).Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []cambium.State{
		cambium.StateIngested, cambium.StateHighPassed, cambium.StateNormalized, cambium.StateCompressed,
		cambium.StateLimited, cambium.StateVerified, cambium.StateDone,
	}, result.Trace)

	_, result, err = newPipeline(t, cambium.PresetGentle).Process(context.Background(), in)
	require.NoError(t, err)

	assert.NotContains(t, result.Trace, cambium.StateCompressed)
	assert.NotContains(t, result.PerStage, cambium.StageCompression)
	assert.Equal(t, result.PerStage[result.Stages[len(result.Stages)-1]], result.Final)
}

func TestProcessSilence(t *testing.T) {
	t.Parallel()

	silent, err := types.Silence(2, 2*44100, 44100)
	require.NoError(t, err)

	out, result, err := newPipeline(t, cambium.PresetAggressive).Process(context.Background(), silent)
	require.NoError(t, err)

	assert.Equal(t, normalize.PathSkipped, result.Normalization.Path)
	assert.True(t, result.Original.Silent())
	assert.True(t, result.Final.Silent())

	for ch := range out.Channels() {
		for _, v := range out.Samples(ch) {
			require.InDelta(t, 0, v, 0)
		}
	}
}

func TestProcessResamplesToWorkingRate(t *testing.T) {
	t.Parallel()

	in := signal{freq: 1000, amplitude: 0.5, seconds: 2, rate: 48000, channels: 2}.buffer(t)

	out, result, err := newPipeline(t, cambium.PresetDefault).Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 48000, result.SourceSampleRate)
	assert.Equal(t, 44100, result.SampleRate)
	assert.Equal(t, 44100, out.SampleRate())
	assert.InDelta(t, in.Duration(), out.Duration(), 1e-6)
	assert.InDelta(t, 2.0, result.DurationSec, 1e-6)
}

func TestProcessLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	in := signal{freq: 1000, amplitude: 0.9, seconds: 1, rate: 44100, channels: 2}.buffer(t)
	before := in.Interleaved()

	_, _, err := newPipeline(t, cambium.PresetAggressive).Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, before, in.Interleaved())
}

func TestProcessRejectsNonFinite(t *testing.T) {
	t.Parallel()

	in, err := types.NewBuffer([][]float64{{0, math.NaN(), 0.5}}, 44100)
	require.NoError(t, err)

	_, _, err = newPipeline(t, cambium.PresetDefault).Process(context.Background(), in)
	require.ErrorIs(t, err, cambium.ErrIngest)
}

func TestProcessTrimsInterSampleOvershootOnce(t *testing.T) {
	t.Parallel()

	// Too short to meter, so normalization passes it through and the clip alone cannot
	// hold the reconstructed peak under the ceiling.
	samples := make([]float64, 8000)
	for i := range samples {
		samples[i] = 0.99 * math.Sin(0.3*float64(i))
	}

	buf, err := types.NewBuffer([][]float64{samples}, 44100)
	require.NoError(t, err)

	pipeline := newPipeline(t, cambium.PresetGentle)
	ceiling := pipeline.Config().TruePeakDbtp

	out, result, err := pipeline.Process(context.Background(), buf)
	require.NoError(t, err)

	assert.True(t, result.PeakRechecked)

	rechecks := 0

	for _, stage := range result.Stages {
		if stage == cambium.StageSafetyLimiter {
			rechecks++
		}
	}

	assert.Equal(t, 1, rechecks)
	assert.Equal(t, cambium.StageSafetyLimiter, result.Stages[len(result.Stages)-1])
	require.Contains(t, result.PerStage, cambium.StageSafetyLimiter)
	assert.Equal(t, result.PerStage[cambium.StageSafetyLimiter], result.Final)

	assert.Greater(t, result.PerStage[cambium.StageLimiter].PeakDbtp, ceiling)
	assert.LessOrEqual(t, truepeak.Measure(out), ceiling+peakSlack)
	assert.LessOrEqual(t, result.Final.PeakDbtp, ceiling+peakSlack)
}

func TestProcessSkipsTrimAtExactCeiling(t *testing.T) {
	t.Parallel()

	// A single full-scale sample is clipped to exactly the ceiling; rounding in the dB
	// conversion must not count as an overshoot.
	buf, err := types.NewBuffer([][]float64{{1}}, 44100)
	require.NoError(t, err)

	for _, preset := range cambium.Presets() {
		out, result, err := newPipeline(t, preset).Process(context.Background(), buf)
		require.NoError(t, err, preset)

		assert.False(t, result.PeakRechecked, preset)
		assert.NotContains(t, result.PerStage, cambium.StageSafetyLimiter, preset)
		assert.Equal(t, cambium.StageLimiter, result.Stages[len(result.Stages)-1], preset)
		assert.LessOrEqual(t, truepeak.Measure(out), preset.Config().TruePeakDbtp+peakSlack, preset)
	}
}
