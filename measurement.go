package cambium

import (
	"log/slog"
	"math"

	"github.com/farcloser/cambium/internal/audit/levels"
	"github.com/farcloser/cambium/internal/audit/loudness"
	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/types"
)

// Stage identifies a step of the chain in per-stage reports.
type Stage string

const (
	StageHighPass      Stage = "high_pass"
	StageNormalize     Stage = "lufs_norm"
	StageCompression   Stage = "compression"
	StageLimiter       Stage = "limiter"
	StageSafetyLimiter Stage = "safety_limiter"
)

// StageMeasurement is a snapshot of levels after a stage.
// LUFS is -Inf for a buffer with no gated loudness. Level values are floored at -120 dB.
// The zero value means the measurement failed.
type StageMeasurement struct {
	LUFS           float64
	PeakDb         float64
	PeakDbtp       float64
	RmsDb          float64
	CrestFactorDb  float64
	DynamicRangeDb float64 // DR value, or the crest factor for material shorter than one block
}

// Silent reports whether the measurement carries the zero-energy sentinel.
func (m StageMeasurement) Silent() bool {
	return math.IsInf(m.LUFS, -1)
}

func measure(meter *loudness.Meter, buf *types.Buffer) StageMeasurement {
	result, err := meter.Analyze(buf)
	if err != nil {
		slog.Warn("cambium.measure", "error", err)

		return StageMeasurement{}
	}

	stats := levels.Analyze(buf)

	measurement := StageMeasurement{
		LUFS:           result.Integrated.LUFS,
		PeakDb:         stats.PeakDb,
		PeakDbtp:       truepeak.Measure(buf),
		RmsDb:          stats.RmsDb,
		CrestFactorDb:  stats.CrestFactorDb,
		DynamicRangeDb: result.DRValue,
	}

	if result.DRValue == 0 {
		measurement.DynamicRangeDb = stats.CrestFactorDb
	}

	return measurement
}
