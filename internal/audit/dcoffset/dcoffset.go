package dcoffset

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/types"
)

// Analyze returns the per-channel mean and the worst absolute offset.
func Analyze(buf *types.Buffer) *types.DCOffsetResult {
	result := &types.DCOffsetResult{
		OffsetDb: types.FloorDb,
		Channels: make([]float64, buf.Channels()),
	}

	if buf.Frames() == 0 {
		return result
	}

	for ch := range buf.Channels() {
		mean := floats.Sum(buf.Samples(ch)) / float64(buf.Frames())
		result.Channels[ch] = mean
		result.Offset = max(result.Offset, math.Abs(mean))
	}

	result.OffsetDb = truepeak.ToDb(result.Offset)

	return result
}
