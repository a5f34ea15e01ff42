// Package dynamics implements a static, memoryless log-domain compressor.
//
// There is no attack or release: gain is computed independently for every sample.
package dynamics

import (
	"errors"
	"fmt"
	"math"

	"github.com/farcloser/cambium/internal/types"
)

// epsilon keeps log10 finite on zero samples.
const epsilon = 1e-10

var errInvalidRatio = errors.New("compression ratio must be >= 1")

// Compressor reduces every sample above ThresholdDb by Ratio in the dB domain.
type Compressor struct {
	thresholdDb float64
	ratio       float64
}

// New returns a compressor.
func New(thresholdDb, ratio float64) (*Compressor, error) {
	if ratio < 1 || math.IsNaN(ratio) || math.IsInf(ratio, 0) || math.IsNaN(thresholdDb) {
		return nil, fmt.Errorf("%w: %.2f", errInvalidRatio, ratio)
	}

	return &Compressor{thresholdDb: thresholdDb, ratio: ratio}, nil
}

// Sample compresses a single value.
// At or below the threshold the output is the input, bit for bit.
func (c *Compressor) Sample(x float64) float64 {
	xDb := 20 * math.Log10(math.Abs(x)+epsilon)
	if xDb <= c.thresholdDb {
		return x
	}

	yDb := c.thresholdDb + (xDb-c.thresholdDb)/c.ratio

	return math.Copysign(math.Pow(10, yDb/20), x)
}

// Apply compresses every sample and returns a new buffer.
func (c *Compressor) Apply(buf *types.Buffer) *types.Buffer {
	return buf.Map(func(_ int, in, out []float64) {
		for i, x := range in {
			out[i] = c.Sample(x)
		}
	})
}
