// Package resample converts buffers between sample rates.
package resample

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	resampler "github.com/tphakala/go-audio-resampler"
	"golang.org/x/sync/errgroup"

	"github.com/farcloser/cambium/internal/types"
)

var (
	// ErrResample wraps failures of the underlying resampling engine.
	ErrResample = errors.New("resampling failed")

	errUnknownQuality = errors.New("unknown resampling quality")
	errInvalidRate    = errors.New("target sample rate must be positive")
)

// Quality is the resampling filter quality.
type Quality = resampler.QualityPreset

// DefaultQuality is used by the mastering chain.
const DefaultQuality = resampler.QualityHigh

// ParseQuality maps a name to a Quality.
func ParseQuality(name string) (Quality, error) {
	switch name {
	case "quick":
		return resampler.QualityQuick, nil
	case "low":
		return resampler.QualityLow, nil
	case "medium":
		return resampler.QualityMedium, nil
	case "high", "":
		return resampler.QualityHigh, nil
	case "very-high":
		return resampler.QualityVeryHigh, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: quick, low, medium, high, very-high)", errUnknownQuality, name)
	}
}

// To returns buf converted to rate. Channels are resampled concurrently.
// The output holds round(frames * rate / source rate) frames, so duration is preserved.
func To(ctx context.Context, buf *types.Buffer, rate int, quality Quality) (*types.Buffer, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidRate, rate)
	}

	if buf.SampleRate() == rate {
		return buf, nil
	}

	if buf.Frames() == 0 {
		return types.Silence(buf.Channels(), 0, rate)
	}

	slog.Debug("resample.To", "from", buf.SampleRate(), "to", rate)

	inRate := float64(buf.SampleRate())
	outRate := float64(rate)
	frames := int(math.Round(float64(buf.Frames()) * outRate / inRate))
	channels := make([][]float64, buf.Channels())

	group, _ := errgroup.WithContext(ctx)

	for ch := range buf.Channels() {
		group.Go(func() error {
			out, err := resampler.ResampleMono(buf.Samples(ch), inRate, outRate, quality)
			if err != nil {
				return fmt.Errorf("%w: channel %d: %w", ErrResample, ch, err)
			}

			channels[ch] = fit(out, frames)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return types.WithChannels(channels, rate)
}

// fit truncates or zero-pads samples to exactly frames.
func fit(samples []float64, frames int) []float64 {
	if len(samples) >= frames {
		return samples[:frames]
	}

	out := make([]float64, frames)
	copy(out, samples)

	return out
}
