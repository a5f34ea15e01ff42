package cambium

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/farcloser/cambium/internal/audit/loudness"
	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/resample"
	"github.com/farcloser/cambium/internal/stage/dynamics"
	"github.com/farcloser/cambium/internal/stage/highpass"
	"github.com/farcloser/cambium/internal/stage/limiter"
	"github.com/farcloser/cambium/internal/stage/normalize"
	"github.com/farcloser/cambium/internal/types"
)

// State is a step of the per-file state machine.
type State int

const (
	StateIngested State = iota
	StateHighPassed
	StateNormalized
	StateCompressed
	StateLimited
	StateVerified
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIngested:
		return "ingested"
	case StateHighPassed:
		return "high_passed"
	case StateNormalized:
		return "normalized"
	case StateCompressed:
		return "compressed"
	case StateLimited:
		return "limited"
	case StateVerified:
		return "verified"
	case StateDone:
		return "done"
	}

	return "unknown"
}

// Result describes one run of the chain.
type Result struct {
	Preset PresetConfig

	Original StageMeasurement
	Final    StageMeasurement
	PerStage map[Stage]StageMeasurement
	Stages   []Stage // visit order

	Normalization normalize.Report
	PeakRechecked bool // the safety trim ran
	Trace         []State

	DurationSec      float64
	Channels         int
	SampleRate       int
	SourceSampleRate int
}

func (r *Result) record(stage Stage, measurement StageMeasurement) {
	r.PerStage[stage] = measurement
	r.Stages = append(r.Stages, stage)
}

// Pipeline is the mastering chain for one preset. It holds no per-file state and is safe
// for concurrent use.
type Pipeline struct {
	config     PresetConfig
	opts       Options
	meter      *loudness.Meter
	highPass   *highpass.Filter
	normalizer *normalize.Controller
	compressor *dynamics.Compressor // nil when the preset disables compression
	limiter    *limiter.Limiter
}

// NewPipeline validates config and opts and builds every stage.
func NewPipeline(config PresetConfig, opts Options) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	meter, err := loudness.NewMeter(opts.WorkingRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	highPass, err := highpass.New(opts.HighPassHz, opts.WorkingRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	normalizer, err := normalize.New(meter, normalize.Options{
		TargetLUFS:      config.TargetLUFS,
		CeilingDbtp:     config.TruePeakDbtp,
		SafetyMarginDb:  opts.SafetyMarginDb,
		ToleranceDb:     opts.ToleranceDb,
		MaxCorrectionDb: opts.MaxCorrectionDb,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	peakLimiter, err := limiter.New(config.TruePeakDbtp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	pipeline := &Pipeline{
		config:     config,
		opts:       opts,
		meter:      meter,
		highPass:   highPass,
		normalizer: normalizer,
		limiter:    peakLimiter,
	}

	if config.UseCompression {
		pipeline.compressor, err = dynamics.New(config.CompThresholdDb, config.CompRatio)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	return pipeline, nil
}

// Config returns the preset parameters the pipeline was built with.
func (p *Pipeline) Config() PresetConfig {
	return p.config
}

// Process runs the chain: resample to the working rate, high-pass, normalize, compress when
// enabled, limit, then verify the true peak once. The input buffer is not modified.
// Errors are limited to inputs that cannot be prepared (non-finite samples, resampling failure).
func (p *Pipeline) Process(ctx context.Context, buf *types.Buffer) (*types.Buffer, *Result, error) {
	result := &Result{
		Preset:           p.config,
		PerStage:         make(map[Stage]StageMeasurement),
		Channels:         buf.Channels(),
		SourceSampleRate: buf.SampleRate(),
		SampleRate:       p.opts.WorkingRate,
	}

	trace := func(state State) {
		result.Trace = append(result.Trace, state)
		slog.Debug("pipeline.Process", "state", state)
	}

	if !buf.Finite() {
		return nil, nil, fmt.Errorf("%w: non-finite samples", ErrIngest)
	}

	working, err := resample.To(ctx, buf, p.opts.WorkingRate, p.opts.ResampleQuality)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIngest, err)
	}

	result.DurationSec = working.Duration()
	result.Original = measure(p.meter, working)

	trace(StateIngested)

	working, err = p.highPass.Apply(working)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIngest, err)
	}

	result.record(StageHighPass, measure(p.meter, working))
	trace(StateHighPassed)

	working, result.Normalization = p.normalizer.Apply(working)
	result.record(StageNormalize, measure(p.meter, working))
	trace(StateNormalized)

	if p.compressor != nil {
		working = p.compressor.Apply(working)
		result.record(StageCompression, measure(p.meter, working))
		trace(StateCompressed)
	}

	working = p.limiter.Apply(working)
	result.record(StageLimiter, measure(p.meter, working))
	trace(StateLimited)

	working = p.verify(working, result)
	trace(StateVerified)

	result.Final = result.PerStage[result.Stages[len(result.Stages)-1]]
	trace(StateDone)

	return working, result, nil
}

// verify re-measures the true peak and trims an overshoot exactly once.
func (p *Pipeline) verify(buf *types.Buffer, result *Result) *types.Buffer {
	peak := truepeak.Measure(buf)
	if peak <= p.config.TruePeakDbtp+peakTolerance {
		return buf
	}

	slog.Warn("pipeline.Process", "error", ErrPeakExceeded,
		"true_peak_dbtp", peak, "ceiling_dbtp", p.config.TruePeakDbtp)

	trimmed := p.limiter.Trim(buf, peak)

	result.PeakRechecked = true
	result.record(StageSafetyLimiter, measure(p.meter, trimmed))

	if after := truepeak.Measure(trimmed); after > p.config.TruePeakDbtp+peakTolerance {
		slog.Warn("pipeline.Process", "error", ErrPeakExceeded, "stage", "after trim",
			"true_peak_dbtp", after, "ceiling_dbtp", p.config.TruePeakDbtp)
	}

	return trimmed
}

// peakTolerance absorbs floating point rounding of the trim gain.
const peakTolerance = 1e-9
