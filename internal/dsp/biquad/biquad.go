// Package biquad implements second-order IIR sections in transposed direct form II.
package biquad

import "math"

// Coefficients of a normalized biquad (a0 == 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// State holds the two delay elements of one section.
type State struct {
	z1, z2 float64
}

// Process runs a single sample through the section.
func (s *State) Process(c *Coefficients, in float64) float64 {
	out := c.B0*in + s.z1
	s.z1 = c.B1*in - c.A1*out + s.z2
	s.z2 = c.B2*in - c.A2*out

	return out
}

// HighPass designs a second-order high-pass section through the bilinear transform,
// prewarped so that f0 lands exactly.
func HighPass(f0, q float64, sampleRate int) Coefficients {
	k := math.Tan(math.Pi * f0 / float64(sampleRate))
	a0 := 1 + k/q + k*k

	return Coefficients{
		B0: 1 / a0,
		B1: -2 / a0,
		B2: 1 / a0,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/q + k*k) / a0,
	}
}

// Cascade is a chain of sections (SOS) applied in order.
type Cascade []Coefficients

// Filter runs in through every section and writes to out. in and out may alias.
func (c Cascade) Filter(in, out []float64) {
	states := make([]State, len(c))

	for i, x := range in {
		for s := range c {
			x = states[s].Process(&c[s], x)
		}

		out[i] = x
	}
}

// Magnitude evaluates |H(e^jw)| of the cascade at frequency f.
func (c Cascade) Magnitude(f float64, sampleRate int) float64 {
	w := 2 * math.Pi * f / float64(sampleRate)
	z1 := complex(math.Cos(-w), math.Sin(-w))
	z2 := z1 * z1
	gain := complex(1, 0)

	for _, s := range c {
		num := complex(s.B0, 0) + complex(s.B1, 0)*z1 + complex(s.B2, 0)*z2
		den := complex(1, 0) + complex(s.A1, 0)*z1 + complex(s.A2, 0)*z2
		gain *= num / den
	}

	return math.Hypot(real(gain), imag(gain))
}
