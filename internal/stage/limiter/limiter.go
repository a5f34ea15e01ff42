// Package limiter is the brick-wall safety net at the end of the chain.
package limiter

import (
	"errors"
	"fmt"
	"math"

	"github.com/farcloser/cambium/internal/types"
)

var errInvalidCeiling = errors.New("limiter ceiling must be below 0 dBTP")

// Limiter hard clips to a ceiling. No lookahead, no release.
type Limiter struct {
	ceilingDb float64
	linear    float64
}

// New returns a limiter clipping at ceilingDb.
func New(ceilingDb float64) (*Limiter, error) {
	if ceilingDb >= 0 || math.IsNaN(ceilingDb) || math.IsInf(ceilingDb, 0) {
		return nil, fmt.Errorf("%w: %.2f", errInvalidCeiling, ceilingDb)
	}

	return &Limiter{ceilingDb: ceilingDb, linear: math.Pow(10, ceilingDb/20)}, nil
}

// Ceiling in dBTP.
func (l *Limiter) Ceiling() float64 { return l.ceilingDb }

// Apply clips every sample to ±ceiling. Applying it twice is the same as applying it once.
func (l *Limiter) Apply(buf *types.Buffer) *types.Buffer {
	return buf.Map(func(_ int, in, out []float64) {
		for i, x := range in {
			out[i] = max(-l.linear, min(l.linear, x))
		}
	})
}

// Trim removes a measured true-peak overshoot: it scales the buffer down by
// (measuredDbtp - ceiling) and then clips. True peak scales linearly with gain, so the result
// sits at the ceiling even where the overshoot was between samples.
// Buffers already at or below the ceiling are only clipped.
func (l *Limiter) Trim(buf *types.Buffer, measuredDbtp float64) *types.Buffer {
	if measuredDbtp <= l.ceilingDb {
		return l.Apply(buf)
	}

	gain := math.Pow(10, (l.ceilingDb-measuredDbtp)/20)

	return buf.Map(func(_ int, in, out []float64) {
		for i, x := range in {
			out[i] = max(-l.linear, min(l.linear, x*gain))
		}
	})
}
