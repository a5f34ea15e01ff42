package cambium

import (
	"github.com/farcloser/cambium/internal/resample"
	"github.com/farcloser/cambium/internal/stage/highpass"
)

// Options configures the pipeline beyond the preset.
type Options struct {
	// WorkingRate is the rate every stage runs at. The loudness meter supports 44100 and 48000.
	WorkingRate int
	// ResampleQuality is used when the input is at another rate.
	ResampleQuality resample.Quality
	// HighPassHz is the high-pass corner frequency.
	HighPassHz float64

	// Normalization controller margins.
	SafetyMarginDb  float64
	ToleranceDb     float64
	MaxCorrectionDb float64
}

// DefaultOptions returns the standard pipeline options (44.1 kHz, 20 Hz high-pass).
func DefaultOptions() Options {
	return Options{
		WorkingRate:     44100,
		ResampleQuality: resample.DefaultQuality,
		HighPassHz:      highpass.DefaultCutoffHz,
		SafetyMarginDb:  0.5,
		ToleranceDb:     1.0,
		MaxCorrectionDb: 2.0,
	}
}
