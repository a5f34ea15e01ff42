// Package normalize brings integrated loudness to a target without crossing a true-peak ceiling.
//
// The controller makes at most two corrective passes. The first applies the naive gain, or a
// gain reduced to stay below the ceiling minus a safety margin. The second, taken only on the
// safe path and only when loudness is still off by more than the tolerance, applies a correction
// clamped to ±MaxCorrectionDb. Residual loudness error is accepted. A third pass could oscillate
// between the loudness and peak constraints on highly dynamic material.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/types"
)

var errInvalidOptions = errors.New("invalid normalization options")

// Meter measures integrated loudness.
type Meter interface {
	Integrated(buf *types.Buffer) (types.LoudnessReading, error)
}

// Path records which branch of the controller ran.
type Path int

const (
	// PathSkipped: degenerate input or a failed measurement, buffer passed through.
	PathSkipped Path = iota
	// PathDirect: the naive gain was safe and was applied as is.
	PathDirect
	// PathSafe: the naive gain would cross the ceiling; a reduced gain was applied.
	PathSafe
	// PathSafeCorrected: PathSafe followed by the bounded secondary correction.
	PathSafeCorrected
)

func (p Path) String() string {
	switch p {
	case PathSkipped:
		return "skipped"
	case PathDirect:
		return "direct"
	case PathSafe:
		return "safe"
	case PathSafeCorrected:
		return "safe+corrected"
	}

	return "unknown"
}

// Options configures the controller.
type Options struct {
	TargetLUFS      float64
	CeilingDbtp     float64
	SafetyMarginDb  float64 // subtracted from the peak-limited gain (default 0.5)
	ToleranceDb     float64 // loudness error that triggers the second pass (default 1.0)
	MaxCorrectionDb float64 // bound of the second pass (default 2.0)
}

// DefaultOptions returns the standard margins for a target and ceiling.
func DefaultOptions(targetLUFS, ceilingDbtp float64) Options {
	return Options{
		TargetLUFS:      targetLUFS,
		CeilingDbtp:     ceilingDbtp,
		SafetyMarginDb:  0.5,
		ToleranceDb:     1.0,
		MaxCorrectionDb: 2.0,
	}
}

// Report is the controller telemetry for one buffer.
type Report struct {
	Path          Path
	InitialLUFS   float64 // L0; -Inf when degenerate
	GainDb        float64 // naive gain, target - L0
	TestPeakDbtp  float64 // true peak the naive gain would produce
	AppliedGainDb float64 // gain of the first pass
	SafePeakDbtp  float64 // true peak after the first pass
	SecondaryLUFS float64 // L1, measured after the safe first pass
	CorrectionDb  float64 // second pass gain, 0 when not taken
	FinalLUFS     float64
	FinalPeakDbtp float64
	Err           error // measurement failure absorbed by the controller
}

// Controller runs the two-pass smart normalization.
type Controller struct {
	meter Meter
	opts  Options
}

// New validates opts and returns a controller.
func New(meter Meter, opts Options) (*Controller, error) {
	for name, value := range map[string]float64{
		"target":         opts.TargetLUFS,
		"ceiling":        opts.CeilingDbtp,
		"safety margin":  opts.SafetyMarginDb,
		"tolerance":      opts.ToleranceDb,
		"max correction": opts.MaxCorrectionDb,
	} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("%w: %s is not finite", errInvalidOptions, name)
		}
	}

	if opts.SafetyMarginDb < 0 || opts.ToleranceDb < 0 || opts.MaxCorrectionDb < 0 {
		return nil, fmt.Errorf("%w: margins must be non-negative", errInvalidOptions)
	}

	return &Controller{meter: meter, opts: opts}, nil
}

// Options returns the controller configuration.
func (c *Controller) Options() Options {
	return c.opts
}

// Apply returns the gain-adjusted buffer and its report. It never fails: measurement problems
// leave the buffer untouched and are recorded in Report.Err.
func (c *Controller) Apply(buf *types.Buffer) (*types.Buffer, Report) {
	report := Report{
		Path:          PathSkipped,
		InitialLUFS:   math.Inf(-1),
		SecondaryLUFS: math.Inf(-1),
		FinalLUFS:     math.Inf(-1),
	}

	initial, err := c.meter.Integrated(buf)
	if err != nil {
		slog.Warn("normalize.Apply", "stage", "measure", "error", err)

		report.Err = err
		report.FinalPeakDbtp = truepeak.Measure(buf)

		return buf, report
	}

	if !initial.OK() {
		// Silence is not amplified.
		slog.Debug("normalize.Apply", "stage", "skip", "reason", "zero energy")

		report.FinalPeakDbtp = truepeak.Measure(buf)

		return buf, report
	}

	peak := truepeak.Measure(buf)

	report.InitialLUFS = initial.LUFS
	report.GainDb = c.opts.TargetLUFS - initial.LUFS
	report.TestPeakDbtp = peak + report.GainDb

	if report.TestPeakDbtp <= c.opts.CeilingDbtp {
		out := Gain(buf, report.GainDb)

		report.Path = PathDirect
		report.AppliedGainDb = report.GainDb
		report.SafePeakDbtp = report.TestPeakDbtp
		report.FinalPeakDbtp = report.TestPeakDbtp
		report.FinalLUFS = c.measure(out, &report)

		slog.Debug("normalize.Apply", "stage", "direct", "gain_db", report.GainDb)

		return out, report
	}

	safeGain := report.GainDb - (report.TestPeakDbtp - c.opts.CeilingDbtp) - c.opts.SafetyMarginDb
	out := Gain(buf, safeGain)

	report.Path = PathSafe
	report.AppliedGainDb = safeGain
	report.SafePeakDbtp = peak + safeGain
	report.FinalPeakDbtp = report.SafePeakDbtp

	slog.Debug("normalize.Apply", "stage", "safe",
		"gain_db", report.GainDb, "safe_gain_db", safeGain, "test_peak_dbtp", report.TestPeakDbtp)

	report.SecondaryLUFS = c.measure(out, &report)
	report.FinalLUFS = report.SecondaryLUFS

	if math.IsInf(report.SecondaryLUFS, -1) {
		return out, report
	}

	if math.Abs(report.SecondaryLUFS-c.opts.TargetLUFS) <= c.opts.ToleranceDb {
		return out, report
	}

	correction := max(-c.opts.MaxCorrectionDb, min(c.opts.MaxCorrectionDb, c.opts.TargetLUFS-report.SecondaryLUFS))
	out = Gain(out, correction)

	report.Path = PathSafeCorrected
	report.CorrectionDb = correction
	report.FinalPeakDbtp = report.SafePeakDbtp + correction
	report.FinalLUFS = c.measure(out, &report)

	slog.Debug("normalize.Apply", "stage", "corrected", "correction_db", correction, "lufs", report.FinalLUFS)

	return out, report
}

// measure returns the integrated loudness, or -Inf when it cannot be determined.
func (c *Controller) measure(buf *types.Buffer, report *Report) float64 {
	reading, err := c.meter.Integrated(buf)
	if err != nil {
		report.Err = err

		return math.Inf(-1)
	}

	return reading.LUFS
}

// Gain scales every sample by 10^(gainDb/20) and returns a new buffer.
func Gain(buf *types.Buffer, gainDb float64) *types.Buffer {
	factor := math.Pow(10, gainDb/20)

	return buf.Map(func(_ int, in, out []float64) {
		floats.ScaleTo(out, factor, in)
	})
}
