// Package levels computes sample domain peak, RMS and crest factor.
package levels

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/types"
)

// Analyze measures the whole buffer, all channels pooled.
func Analyze(buf *types.Buffer) *types.LevelStats {
	var (
		peak       float64
		sumSquares float64
		samples    int
	)

	for ch := range buf.Channels() {
		data := buf.Samples(ch)
		if len(data) == 0 {
			continue
		}

		peak = max(peak, math.Abs(floats.Max(data)), math.Abs(floats.Min(data)))
		sumSquares += floats.Dot(data, data)
		samples += len(data)
	}

	stats := &types.LevelStats{
		PeakDb:  truepeak.ToDb(peak),
		RmsDb:   types.FloorDb,
		Samples: uint64(samples), //nolint:gosec // sample counts are non-negative
	}

	if samples > 0 {
		stats.RmsDb = truepeak.ToDb(math.Sqrt(sumSquares / float64(samples)))
	}

	stats.CrestFactorDb = stats.PeakDb - stats.RmsDb

	return stats
}
