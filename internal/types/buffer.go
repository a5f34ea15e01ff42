package types

import (
	"errors"
	"fmt"
	"math"
)

// MaxChannels is the widest layout the chain processes (stereo).
const MaxChannels = 2

var (
	// ErrInvalidBuffer is returned when buffer construction parameters are inconsistent.
	ErrInvalidBuffer = errors.New("invalid audio buffer")
	// ErrMeasurement is returned when a meter cannot process a buffer (as opposed to a degenerate reading).
	ErrMeasurement = errors.New("measurement failed")
)

// Buffer is an immutable block of de-interleaved floating point PCM.
// Nominal amplitude is [-1, 1]; values may exceed it before limiting.
// Every processing stage produces a new Buffer.
type Buffer struct {
	channels   [][]float64
	sampleRate int
}

// NewBuffer copies the given channel data into a new Buffer.
func NewBuffer(channels [][]float64, sampleRate int) (*Buffer, error) {
	if err := validateLayout(channels, sampleRate); err != nil {
		return nil, err
	}

	data := make([][]float64, len(channels))
	for ch := range channels {
		data[ch] = make([]float64, len(channels[ch]))
		copy(data[ch], channels[ch])
	}

	return &Buffer{channels: data, sampleRate: sampleRate}, nil
}

// NewBufferFromInterleaved de-interleaves frames of numChannels samples.
// A trailing partial frame is dropped.
func NewBufferFromInterleaved(samples []float64, numChannels, sampleRate int) (*Buffer, error) {
	if numChannels < 1 || numChannels > MaxChannels {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidBuffer, numChannels)
	}

	frames := len(samples) / numChannels
	data := make([][]float64, numChannels)

	for ch := range data {
		data[ch] = make([]float64, frames)
	}

	for i := range frames {
		for ch := range numChannels {
			data[ch][i] = samples[i*numChannels+ch]
		}
	}

	if err := validateLayout(data, sampleRate); err != nil {
		return nil, err
	}

	return &Buffer{channels: data, sampleRate: sampleRate}, nil
}

// Silence returns an all-zero buffer.
func Silence(numChannels, frames, sampleRate int) (*Buffer, error) {
	data := make([][]float64, numChannels)
	for ch := range data {
		data[ch] = make([]float64, frames)
	}

	if err := validateLayout(data, sampleRate); err != nil {
		return nil, err
	}

	return &Buffer{channels: data, sampleRate: sampleRate}, nil
}

func validateLayout(channels [][]float64, sampleRate int) error {
	if len(channels) < 1 || len(channels) > MaxChannels {
		return fmt.Errorf("%w: %d channels", ErrInvalidBuffer, len(channels))
	}

	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidBuffer, sampleRate)
	}

	for ch := 1; ch < len(channels); ch++ {
		if len(channels[ch]) != len(channels[0]) {
			return fmt.Errorf("%w: channel %d has %d frames, expected %d",
				ErrInvalidBuffer, ch, len(channels[ch]), len(channels[0]))
		}
	}

	return nil
}

// SampleRate in Hz.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Channels count (1 or 2).
func (b *Buffer) Channels() int { return len(b.channels) }

// Frames is the number of samples per channel.
func (b *Buffer) Frames() int { return len(b.channels[0]) }

// Duration in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.Frames()) / float64(b.sampleRate)
}

// Samples returns a read-only view of one channel. Callers must not modify it.
func (b *Buffer) Samples(ch int) []float64 {
	return b.channels[ch]
}

// Channel returns a copy of one channel.
func (b *Buffer) Channel(ch int) []float64 {
	out := make([]float64, len(b.channels[ch]))
	copy(out, b.channels[ch])

	return out
}

// Interleaved returns the samples as interleaved frames.
func (b *Buffer) Interleaved() []float64 {
	numChannels := b.Channels()
	out := make([]float64, b.Frames()*numChannels)

	for ch, data := range b.channels {
		for i, v := range data {
			out[i*numChannels+ch] = v
		}
	}

	return out
}

// Map builds a new buffer by running fn on each channel. fn receives a read-only input
// and a zeroed output slice of the same length.
func (b *Buffer) Map(fn func(ch int, in, out []float64)) *Buffer {
	data := make([][]float64, len(b.channels))

	for ch, in := range b.channels {
		data[ch] = make([]float64, len(in))
		fn(ch, in, data[ch])
	}

	return &Buffer{channels: data, sampleRate: b.sampleRate}
}

// WithChannels wraps already-owned channel slices at the given rate. The caller hands over
// ownership: the slices must not be modified afterwards.
func WithChannels(channels [][]float64, sampleRate int) (*Buffer, error) {
	if err := validateLayout(channels, sampleRate); err != nil {
		return nil, err
	}

	return &Buffer{channels: channels, sampleRate: sampleRate}, nil
}

// Finite reports whether every sample is a finite number.
func (b *Buffer) Finite() bool {
	for _, data := range b.channels {
		for _, v := range data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}
