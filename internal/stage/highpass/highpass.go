// Package highpass removes DC and sub-audible rumble ahead of the mastering chain.
//
// The filter is a 4th-order Butterworth split into two biquad sections and run causally
// (forward only). It leaves a short phase transient at the start of the buffer, which is
// not corrected: there is no zero-phase pass.
package highpass

import (
	"errors"
	"fmt"
	"math"

	"github.com/farcloser/cambium/internal/dsp/biquad"
	"github.com/farcloser/cambium/internal/types"
)

// DefaultCutoffHz is the default corner frequency.
const DefaultCutoffHz = 20.0

const order = 4

var errInvalidCutoff = errors.New("high-pass cutoff must be between 0 and Nyquist")

// Filter is a Butterworth high-pass designed for one sample rate.
type Filter struct {
	cutoff     float64
	sampleRate int
	sections   biquad.Cascade
}

// New designs the filter. Each conjugate pole pair of the analog prototype becomes one section,
// with Q = 1 / (2 cos(theta)).
func New(cutoffHz float64, sampleRate int) (*Filter, error) {
	if cutoffHz <= 0 || cutoffHz >= float64(sampleRate)/2 || math.IsNaN(cutoffHz) {
		return nil, fmt.Errorf("%w: %.1f Hz at %d Hz", errInvalidCutoff, cutoffHz, sampleRate)
	}

	sections := make(biquad.Cascade, 0, order/2)

	for k := range order / 2 {
		theta := math.Pi * float64(2*k+1) / float64(2*order)
		sections = append(sections, biquad.HighPass(cutoffHz, 1/(2*math.Cos(theta)), sampleRate))
	}

	return &Filter{cutoff: cutoffHz, sampleRate: sampleRate, sections: sections}, nil
}

// Cutoff in Hz.
func (f *Filter) Cutoff() float64 { return f.cutoff }

// Response returns the magnitude response at freq.
func (f *Filter) Response(freq float64) float64 {
	return f.sections.Magnitude(freq, f.sampleRate)
}

// Apply filters every channel independently and returns a new buffer.
// Buffers at another rate than the design rate get a filter redesigned for their rate.
func (f *Filter) Apply(buf *types.Buffer) (*types.Buffer, error) {
	sections := f.sections

	if buf.SampleRate() != f.sampleRate {
		other, err := New(f.cutoff, buf.SampleRate())
		if err != nil {
			return nil, err
		}

		sections = other.sections
	}

	return buf.Map(func(_ int, in, out []float64) {
		sections.Filter(in, out)
	}), nil
}
