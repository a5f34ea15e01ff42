package clipping

import (
	"math"

	"github.com/farcloser/cambium/internal/types"
)

// DefaultThreshold is the magnitude counted as clipped (about -0.09 dBFS).
const DefaultThreshold = 0.99

// Detect counts samples at or above threshold, and runs of two or more per channel.
func Detect(buf *types.Buffer, threshold float64) *types.ClippingDetection {
	result := &types.ClippingDetection{}

	flush := func(run uint64) {
		if run >= 2 {
			result.Events++
			result.LongestRun = max(result.LongestRun, run)
		}
	}

	for ch := range buf.Channels() {
		var consecutive uint64

		for _, sample := range buf.Samples(ch) {
			result.Samples++

			if math.Abs(sample) >= threshold {
				result.ClippedSamples++
				consecutive++

				continue
			}

			flush(consecutive)
			consecutive = 0
		}

		// Flush trailing clips
		flush(consecutive)
	}

	if result.Samples > 0 {
		result.Percentage = float64(result.ClippedSamples) / float64(result.Samples) * 100
	}

	return result
}
