package normalize_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/cambium/internal/audit/loudness"
	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/stage/normalize"
	"github.com/farcloser/cambium/internal/types"
)

const rate = 44100

func tone(t *testing.T, amplitude float64, clickEvery int) *types.Buffer {
	t.Helper()

	data := make([]float64, 5*rate)
	for i := range data {
		data[i] = amplitude * math.Sin(2*math.Pi*1000*float64(i)/rate)
		if clickEvery > 0 && i%clickEvery == clickEvery/2 {
			data[i] = 1
		}
	}

	buf, err := types.NewBuffer([][]float64{data}, rate)
	require.NoError(t, err)

	return buf
}

func controller(t *testing.T, target, ceiling float64) *normalize.Controller {
	t.Helper()

	meter, err := loudness.NewMeter(rate)
	require.NoError(t, err)

	ctrl, err := normalize.New(meter, normalize.DefaultOptions(target, ceiling))
	require.NoError(t, err)

	return ctrl
}

func TestNewValidatesOptions(t *testing.T) {
	t.Parallel()

	meter, err := loudness.NewMeter(rate)
	require.NoError(t, err)

	bad := normalize.DefaultOptions(-10, -1)
	bad.SafetyMarginDb = -0.5
	_, err = normalize.New(meter, bad)
	require.Error(t, err)

	bad = normalize.DefaultOptions(math.NaN(), -1)
	_, err = normalize.New(meter, bad)
	require.Error(t, err)

	bad = normalize.DefaultOptions(-10, math.Inf(1))
	_, err = normalize.New(meter, bad)
	require.Error(t, err)
}

func TestDirectPath(t *testing.T) {
	t.Parallel()

	out, report := controller(t, -10, -1).Apply(tone(t, 0.5, 0))

	assert.Equal(t, normalize.PathDirect, report.Path)
	assert.Equal(t, "direct", report.Path.String())
	assert.InDelta(t, report.GainDb, report.AppliedGainDb, 0)
	assert.InDelta(t, -10, report.FinalLUFS, 0.1)
	assert.InDelta(t, 0, report.CorrectionDb, 0)
	assert.LessOrEqual(t, report.TestPeakDbtp, -1.0)
	assert.InDelta(t, truepeak.Measure(out), report.FinalPeakDbtp, 1e-9)
}

func TestSafePath(t *testing.T) {
	t.Parallel()

	// A quiet tone under full scale clicks: reaching the target would push the clicks far over.
	in := tone(t, math.Pow(10, -30.0/20), rate/2)
	ctrl := controller(t, -10, -1)

	out, report := ctrl.Apply(in)

	require.NoError(t, report.Err)
	assert.Equal(t, normalize.PathSafeCorrected, report.Path)
	assert.Greater(t, report.TestPeakDbtp, -1.0)

	// First pass lands one safety margin under the ceiling.
	assert.InDelta(t, -1.5, report.SafePeakDbtp, 1e-9)
	assert.InDelta(t, report.InitialLUFS+report.AppliedGainDb, report.SecondaryLUFS, 0.01)

	// Second pass is bounded.
	assert.InDelta(t, 2, report.CorrectionDb, 1e-12)
	assert.InDelta(t, report.SecondaryLUFS+2, report.FinalLUFS, 0.01)
	assert.InDelta(t, report.SafePeakDbtp+2, report.FinalPeakDbtp, 1e-9)
	assert.InDelta(t, truepeak.Measure(out), report.FinalPeakDbtp, 1e-6)
	assert.Greater(t, math.Abs(report.FinalLUFS-ctrl.Options().TargetLUFS), 0.5)
}

func TestSafePathWithinTolerance(t *testing.T) {
	t.Parallel()

	in := tone(t, 0.5, 0)
	peak := truepeak.Measure(in)

	meter, err := loudness.NewMeter(rate)
	require.NoError(t, err)

	initial, err := meter.Integrated(in)
	require.NoError(t, err)

	// Naive gain puts the peak at -0.75 dBTP, 0.25 dB over the ceiling, so the safe gain
	// lands 0.75 dB short of target: inside the tolerance.
	target := initial.LUFS - 0.75 - peak
	ctrl, err := normalize.New(meter, normalize.DefaultOptions(target, -1))
	require.NoError(t, err)

	out, report := ctrl.Apply(in)

	assert.Equal(t, normalize.PathSafe, report.Path)
	assert.Equal(t, "safe", report.Path.String())
	assert.InDelta(t, 0, report.CorrectionDb, 0)
	assert.InDelta(t, -1.5, truepeak.Measure(out), 1e-6)
	assert.InDelta(t, -0.75, report.FinalLUFS-target, 0.01)
}

func TestSilenceIsNotAmplified(t *testing.T) {
	t.Parallel()

	silent, err := types.Silence(2, rate, rate)
	require.NoError(t, err)

	out, report := controller(t, -10, -1).Apply(silent)

	assert.Same(t, silent, out)
	assert.Equal(t, normalize.PathSkipped, report.Path)
	assert.True(t, math.IsInf(report.InitialLUFS, -1))
	assert.True(t, math.IsInf(report.FinalLUFS, -1))
	require.NoError(t, report.Err)
}

type failingMeter struct{}

var errBroken = errors.New("broken meter")

func (failingMeter) Integrated(*types.Buffer) (types.LoudnessReading, error) {
	return types.Degenerate(), errBroken
}

func TestMeasurementFailurePassesThrough(t *testing.T) {
	t.Parallel()

	ctrl, err := normalize.New(failingMeter{}, normalize.DefaultOptions(-10, -1))
	require.NoError(t, err)

	in := tone(t, 0.5, 0)
	out, report := ctrl.Apply(in)

	assert.Same(t, in, out)
	assert.Equal(t, normalize.PathSkipped, report.Path)
	require.ErrorIs(t, report.Err, errBroken)
}

func TestGain(t *testing.T) {
	t.Parallel()

	in, err := types.NewBuffer([][]float64{{0.5, -0.25}}, rate)
	require.NoError(t, err)

	out := normalize.Gain(in, -6.0206)
	assert.InDelta(t, 0.25, out.Samples(0)[0], 1e-4)
	assert.InDelta(t, -0.125, out.Samples(0)[1], 1e-4)
	assert.InDelta(t, 0.5, in.Samples(0)[0], 0)
}
