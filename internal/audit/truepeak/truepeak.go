// Package truepeak estimates the reconstructed (inter-sample) peak of a buffer.
//
// Every channel is upsampled 4x through a Kaiser windowed sinc split into polyphase branches.
// The reported true peak is the larger of the sample peak and the interpolated peak, which
// keeps it linear in gain: scaling a buffer by g dB moves its true peak by exactly g dB.
package truepeak

import (
	"math"

	"github.com/farcloser/cambium/internal/types"
)

const (
	phases = 4  // oversampling factor
	taps   = 12 // per branch
	beta   = 5.0
)

// branches holds the interpolation filter, one row per output phase.
var branches = design() //nolint:gochecknoglobals // read-only filter table

func design() [phases][taps]float64 {
	var table [phases][taps]float64

	length := phases * taps
	center := float64(length-1) / 2
	norm := besselI0(beta)

	for idx := range length {
		offset := float64(idx) - center
		pos := offset / center
		arg := math.Pi * offset / phases

		kernel := 1.0
		if math.Abs(offset) > 1e-10 {
			kernel = math.Sin(arg) / arg
		}

		table[idx%phases][idx/phases] = kernel * besselI0(beta*math.Sqrt(1-pos*pos)) / norm
	}

	// Each branch must pass DC untouched.
	for phase := range table {
		var sum float64
		for _, c := range table[phase] {
			sum += c
		}

		for tap := range table[phase] {
			table[phase][tap] /= sum
		}
	}

	return table
}

// besselI0 is the zeroth order modified Bessel function of the first kind, by power series.
func besselI0(x float64) float64 {
	quarter := x * x / 4
	sum, term := 1.0, 1.0

	for k := 1.0; k <= 25 && term >= 1e-12; k++ {
		term *= quarter / (k * k)
		sum += term
	}

	return sum
}

// ToDb converts a linear magnitude to dB, floored at types.FloorDb.
func ToDb(linear float64) float64 {
	if linear <= 0 {
		return types.FloorDb
	}

	return max(20*math.Log10(linear), types.FloorDb)
}

// peaks accumulates the scan of one or more channels.
type peaks struct {
	sample  float64
	interp  float64
	overs   uint64
	overMax float64
}

// scan runs one channel through the interpolator. The history ring is sized to a branch and
// indexed from the newest sample backwards.
func (p *peaks) scan(data []float64) {
	var ring [taps]float64

	head := 0

	for _, sample := range data {
		p.sample = max(p.sample, math.Abs(sample))

		ring[head] = sample
		head = (head + 1) % taps

		for phase := range branches {
			var acc float64

			for tap, coeff := range &branches[phase] {
				acc += coeff * ring[(head+tap)%taps]
			}

			acc = math.Abs(acc)
			p.interp = max(p.interp, acc)

			if acc > 1 {
				p.overs++
				p.overMax = max(p.overMax, 20*math.Log10(acc))
			}
		}
	}
}

// Detect measures sample and reconstructed peaks across all channels.
func Detect(buf *types.Buffer) *types.TruePeakResult {
	var acc peaks

	for ch := range buf.Channels() {
		acc.scan(buf.Samples(ch))
	}

	return &types.TruePeakResult{
		TruePeakDb:   ToDb(max(acc.sample, acc.interp)),
		SamplePeakDb: ToDb(acc.sample),
		ISPCount:     acc.overs,
		ISPMaxDb:     acc.overMax,
		Frames:       uint64(buf.Frames()), //nolint:gosec // frame counts are non-negative
	}
}

// Measure returns the true peak in dBTP.
func Measure(buf *types.Buffer) float64 {
	return Detect(buf).TruePeakDb
}
