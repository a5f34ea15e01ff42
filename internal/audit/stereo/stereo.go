package stereo

import (
	"math"

	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/types"
)

// eps keeps the width and balance ratios finite on silence.
const eps = 1e-10

// Analyze returns stereo field statistics. Mono buffers yield a zero result.
func Analyze(buf *types.Buffer) *types.StereoResult {
	if buf.Channels() != 2 || buf.Frames() == 0 {
		return &types.StereoResult{}
	}

	left := buf.Samples(0)
	right := buf.Samples(1)

	var sumL, sumR, sumLL, sumRR, sumLR, sumMidSq, sumSideSq float64

	for i := range left {
		l, r := left[i], right[i]

		sumL += l
		sumR += r
		sumLL += l * l
		sumRR += r * r
		sumLR += l * r

		mid := (l + r) / 2
		side := (l - r) / 2
		sumMidSq += mid * mid
		sumSideSq += side * side
	}

	n := float64(len(left))

	// Pearson correlation
	numerator := n*sumLR - sumL*sumR
	denominator := math.Sqrt((n*sumLL - sumL*sumL) * (n*sumRR - sumR*sumR))

	var correlation float64
	if denominator > 0 {
		correlation = numerator / denominator
	}

	leftRms := math.Sqrt(sumLL / n)
	rightRms := math.Sqrt(sumRR / n)
	midRms := math.Sqrt(sumMidSq / n)
	sideRms := math.Sqrt(sumSideSq / n)

	leftDb := truepeak.ToDb(leftRms)
	rightDb := truepeak.ToDb(rightRms)

	return &types.StereoResult{
		Correlation: correlation,
		Width:       sideRms / (midRms + eps),
		Balance:     (rightRms - leftRms) / (rightRms + leftRms + eps),
		LeftRmsDb:   leftDb,
		RightRmsDb:  rightDb,
		ImbalanceDb: leftDb - rightDb,
		Frames:      uint64(len(left)),
	}
}
