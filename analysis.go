package cambium

import (
	"context"
	"fmt"
	"math"

	"github.com/farcloser/cambium/internal/audit/clipping"
	"github.com/farcloser/cambium/internal/audit/dcoffset"
	"github.com/farcloser/cambium/internal/audit/levels"
	"github.com/farcloser/cambium/internal/audit/loudness"
	"github.com/farcloser/cambium/internal/audit/stereo"
	"github.com/farcloser/cambium/internal/audit/truepeak"
	"github.com/farcloser/cambium/internal/resample"
	"github.com/farcloser/cambium/internal/types"
)

/*
Usage:

analysis, err := cambium.Analyze(ctx, buf, cambium.DefaultAnalysisOptions())
if analysis.HasClipping {
    fmt.Println("Clipping detected!")
}

fmt.Println(analysis.Suggestion.Preset, analysis.Suggestion.Reason)

comparison := cambium.Compare(before, after)
for _, warning := range comparison.Warnings {
    fmt.Println(warning)
}
*/

// Check is a level or stereo check reported by Analyze.
type Check int

const (
	CheckClipping Check = 1 << iota
	CheckInterSamplePeaks
	CheckDCOffset
	CheckChannelImbalance
	CheckPhaseIssues
	CheckDynamicRange
)

func (c Check) String() string {
	switch c {
	case CheckClipping:
		return "clipping"
	case CheckInterSamplePeaks:
		return "inter-sample-peaks"
	case CheckDCOffset:
		return "dc-offset"
	case CheckChannelImbalance:
		return "channel-imbalance"
	case CheckPhaseIssues:
		return "phase-issues"
	case CheckDynamicRange:
		return "dynamic-range"
	}

	return "unknown"
}

// Severity indicates how bad a detected issue is.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "no issue"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	}

	return "unknown"
}

// Issue represents a check outcome.
type Issue struct {
	Check    Check
	Detected bool
	Severity Severity
	Summary  string
}

// Bands defines severity thresholds for a check. Direction is implicit:
// if Mild < Severe, higher values are worse (ascending, e.g. dB offset).
// If Mild > Severe, lower values are worse (descending, e.g. DR value).
type Bands struct {
	Mild     float64
	Moderate float64
	Severe   float64
}

// Match returns the severity for a value.
// Returns (SeverityNone, false) when the value is below detection (the Mild threshold).
func (b Bands) Match(value float64) (Severity, bool) {
	if b.Mild <= b.Severe {
		switch {
		case value >= b.Severe:
			return SeveritySevere, true
		case value >= b.Moderate:
			return SeverityModerate, true
		case value >= b.Mild:
			return SeverityMild, true
		}

		return SeverityNone, false
	}

	switch {
	case value <= b.Severe:
		return SeveritySevere, true
	case value <= b.Moderate:
		return SeverityModerate, true
	case value <= b.Mild:
		return SeverityMild, true
	}

	return SeverityNone, false
}

// AnalysisOptions holds the severity bands of every check.
type AnalysisOptions struct {
	ClippingThreshold float64 // sample magnitude counted as clipped (default 0.99)

	Clipping         Bands // percentage of clipped samples
	ISP              Bands // true peak, dBTP
	DCOffset         Bands // dB
	ChannelImbalance Bands // |dB|
	PhaseIssues      Bands // correlation, descending
	DynamicRange     Bands // DR value, descending
}

// DefaultAnalysisOptions returns bands for finished masters.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		ClippingThreshold: clipping.DefaultThreshold,
		Clipping:          Bands{Mild: 0.01, Moderate: 0.1, Severe: 1},
		ISP:               Bands{Mild: -1, Moderate: 0, Severe: 1},
		DCOffset:          Bands{Mild: -40, Moderate: -26, Severe: -13},
		ChannelImbalance:  Bands{Mild: 1, Moderate: 2, Severe: 3},
		PhaseIssues:       Bands{Mild: 0.2, Moderate: 0, Severe: -0.3},
		DynamicRange:      Bands{Mild: 8, Moderate: 6, Severe: 4},
	}
}

// Suggestion is a preset recommendation based on the measured loudness.
type Suggestion struct {
	Preset Preset
	Reason string
}

// SuggestPreset recommends a preset for material at the given integrated loudness.
// Louder material needs less processing.
func SuggestPreset(lufs float64) Suggestion {
	switch {
	case lufs > -12:
		return Suggestion{Preset: PresetGentle, Reason: fmt.Sprintf("already loud (%.1f LUFS): limit peaks only", lufs)}
	case lufs > -16:
		return Suggestion{Preset: PresetDefault, Reason: fmt.Sprintf("moderate loudness (%.1f LUFS)", lufs)}
	case lufs > -20:
		return Suggestion{Preset: PresetDynamic, Reason: fmt.Sprintf("quiet (%.1f LUFS): keep the dynamics", lufs)}
	default:
		return Suggestion{Preset: PresetAggressive, Reason: fmt.Sprintf("very quiet (%.1f LUFS): needs gain and density", lufs)}
	}
}

// Analysis contains the measurements of one buffer and the checks derived from them.
type Analysis struct {
	Issues        []Issue
	IssueCount    int
	WorstSeverity Severity

	HasClipping         bool
	HasInterSamplePeaks bool
	HasDCOffset         bool
	HasChannelImbalance bool
	HasPhaseIssues      bool
	IsBrickwalled       bool

	Suggestion Suggestion

	Loudness *types.LoudnessResult
	TruePeak *types.TruePeakResult
	Levels   *types.LevelStats
	Stereo   *types.StereoResult // nil for mono
	Clipping *types.ClippingDetection
	DCOffset *types.DCOffsetResult

	DurationSec float64
	SampleRate  int
	Channels    int
}

// Analyze measures buf. Buffers at a rate the loudness meter does not support are resampled
// to 48 kHz for the loudness figures only.
func Analyze(ctx context.Context, buf *types.Buffer, opts AnalysisOptions) (*Analysis, error) {
	if opts.ClippingThreshold == 0 {
		opts = DefaultAnalysisOptions()
	}

	metered := buf

	meter, err := loudness.NewMeter(buf.SampleRate())
	if err != nil {
		metered, err = resample.To(ctx, buf, 48000, resample.DefaultQuality)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIngest, err)
		}

		meter, err = loudness.NewMeter(metered.SampleRate())
		if err != nil {
			return nil, err
		}
	}

	loud, err := meter.Analyze(metered)
	if err != nil {
		return nil, err
	}

	result := &Analysis{
		Loudness:    loud,
		TruePeak:    truepeak.Detect(buf),
		Levels:      levels.Analyze(buf),
		Clipping:    clipping.Detect(buf, opts.ClippingThreshold),
		DCOffset:    dcoffset.Analyze(buf),
		DurationSec: buf.Duration(),
		SampleRate:  buf.SampleRate(),
		Channels:    buf.Channels(),
	}

	if buf.Channels() == 2 {
		result.Stereo = stereo.Analyze(buf)
	}

	if loud.Integrated.OK() {
		result.Suggestion = SuggestPreset(loud.Integrated.LUFS)
	} else {
		result.Suggestion = Suggestion{Preset: PresetGentle, Reason: "no measurable loudness"}
	}

	interpret(result, opts)

	return result, nil
}

func interpret(result *Analysis, opts AnalysisOptions) {
	add := func(check Check, severity Severity, detected bool, summary string) {
		result.Issues = append(result.Issues, Issue{Check: check, Detected: detected, Severity: severity, Summary: summary})

		if detected {
			result.IssueCount++
			result.WorstSeverity = max(result.WorstSeverity, severity)
		}
	}

	// Clipping
	{
		clip := result.Clipping
		severity, detected := opts.Clipping.Match(clip.Percentage)

		summary := "No clipping detected"
		if detected {
			summary = fmt.Sprintf("%d clipped samples (%.3f%%), %d runs, longest %d",
				clip.ClippedSamples, clip.Percentage, clip.Events, clip.LongestRun)
		}

		result.HasClipping = detected
		add(CheckClipping, severity, detected, summary)
	}

	// Inter-sample peaks
	{
		severity, detected := opts.ISP.Match(result.TruePeak.TruePeakDb)

		summary := fmt.Sprintf("True peak %.2f dBTP", result.TruePeak.TruePeakDb)
		if result.TruePeak.ISPCount > 0 {
			summary += fmt.Sprintf(", %d reconstructed values above 0 dBFS", result.TruePeak.ISPCount)
		}

		result.HasInterSamplePeaks = detected
		add(CheckInterSamplePeaks, severity, detected, summary)
	}

	// DC offset
	{
		severity, detected := opts.DCOffset.Match(result.DCOffset.OffsetDb)

		summary := "No DC offset"
		if detected {
			summary = fmt.Sprintf("DC offset %.4f (%.1f dB)", result.DCOffset.Offset, result.DCOffset.OffsetDb)
		}

		result.HasDCOffset = detected
		add(CheckDCOffset, severity, detected, summary)
	}

	// Stereo checks are skipped for mono
	if st := result.Stereo; st != nil {
		severity, detected := opts.ChannelImbalance.Match(math.Abs(st.ImbalanceDb))

		summary := "Balanced"
		if detected {
			side := "left"
			if st.ImbalanceDb < 0 {
				side = "right"
			}

			summary = fmt.Sprintf("%.1f dB (%s louder)", math.Abs(st.ImbalanceDb), side)
		}

		result.HasChannelImbalance = detected
		add(CheckChannelImbalance, severity, detected, summary)

		severity, detected = opts.PhaseIssues.Match(st.Correlation)

		summary = fmt.Sprintf("Correlation %.2f, width %.3f", st.Correlation, st.Width)
		if detected {
			summary += ": poor mono compatibility"
		}

		result.HasPhaseIssues = detected
		add(CheckPhaseIssues, severity, detected, summary)
	}

	// Dynamic range needs at least one block
	if result.Loudness.DRValue > 0 {
		severity, detected := opts.DynamicRange.Match(result.Loudness.DRValue)

		summary := fmt.Sprintf("DR %.1f", result.Loudness.DRValue)
		if detected {
			summary += ", heavily compressed"
		}

		result.IsBrickwalled = detected
		add(CheckDynamicRange, severity, detected, summary)
	}
}

// Comparison lists the changes between an original and its master.
type Comparison struct {
	Original *Analysis
	Mastered *Analysis

	LoudnessDeltaLU float64 // NaN when either side has no measurable loudness
	PeakDeltaDb     float64
	TruePeakDeltaDb float64
	RmsDeltaDb      float64
	CrestDeltaDb    float64
	WidthDelta      float64
	BalanceDelta    float64

	Warnings []string
}

const (
	// heavyClippingPercent of clipped samples in a master triggers a warning.
	heavyClippingPercent = 0.1
	// crestLossDb of crest factor reduction triggers a warning.
	crestLossDb = -3.0
)

// Compare reports the differences between two analyses and warns about heavy clipping
// or a large loss of crest factor in the master.
func Compare(original, mastered *Analysis) *Comparison {
	comparison := &Comparison{
		Original:        original,
		Mastered:        mastered,
		LoudnessDeltaLU: math.NaN(),
		PeakDeltaDb:     mastered.Levels.PeakDb - original.Levels.PeakDb,
		TruePeakDeltaDb: mastered.TruePeak.TruePeakDb - original.TruePeak.TruePeakDb,
		RmsDeltaDb:      mastered.Levels.RmsDb - original.Levels.RmsDb,
		CrestDeltaDb:    mastered.Levels.CrestFactorDb - original.Levels.CrestFactorDb,
	}

	if original.Loudness.Integrated.OK() && mastered.Loudness.Integrated.OK() {
		comparison.LoudnessDeltaLU = mastered.Loudness.Integrated.LUFS - original.Loudness.Integrated.LUFS
	}

	if original.Stereo != nil && mastered.Stereo != nil {
		comparison.WidthDelta = mastered.Stereo.Width - original.Stereo.Width
		comparison.BalanceDelta = mastered.Stereo.Balance - original.Stereo.Balance
	}

	if mastered.Clipping.Percentage > heavyClippingPercent {
		comparison.Warnings = append(comparison.Warnings,
			fmt.Sprintf("significant clipping in master (%.2f%% of samples)", mastered.Clipping.Percentage))
	}

	if comparison.CrestDeltaDb < crestLossDb {
		comparison.Warnings = append(comparison.Warnings,
			fmt.Sprintf("dynamics strongly reduced (crest factor %.1f dB)", comparison.CrestDeltaDb))
	}

	return comparison
}
