//nolint:wrapcheck
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/output"
)

func printData(formatName string, data ...*format.Data) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	return formatter.PrintAll(data, os.Stdout)
}

func db(value float64, unit string) string {
	if math.IsInf(value, -1) {
		return "silent"
	}

	return fmt.Sprintf("%.2f %s", value, unit)
}

// buildFriendlyResult summarizes a mastering result for console output.
func buildFriendlyResult(result *cambium.Result) map[string]any {
	stages := make(map[string]any, len(result.Stages))
	for _, stage := range result.Stages {
		measurement := result.PerStage[stage]
		stages[string(stage)] = fmt.Sprintf("%s, %s, crest %s",
			db(measurement.LUFS, "LUFS"), db(measurement.PeakDbtp, "dBTP"), db(measurement.CrestFactorDb, "dB"))
	}

	meta := map[string]any{
		"preset": fmt.Sprintf("%s (target %.1f LUFS, ceiling %.1f dBTP)",
			result.Preset.Name, result.Preset.TargetLUFS, result.Preset.TruePeakDbtp),
		"before": fmt.Sprintf("%s, %s", db(result.Original.LUFS, "LUFS"), db(result.Original.PeakDbtp, "dBTP")),
		"after":  fmt.Sprintf("%s, %s", db(result.Final.LUFS, "LUFS"), db(result.Final.PeakDbtp, "dBTP")),
		"normalization": fmt.Sprintf("%s (gain %+.2f dB, correction %+.2f dB)",
			result.Normalization.Path, result.Normalization.AppliedGainDb, result.Normalization.CorrectionDb),
		"stages":   stages,
		"duration": fmt.Sprintf("%.1f s at %d Hz (source %d Hz)", result.DurationSec, result.SampleRate, result.SourceSampleRate),
	}

	if result.PeakRechecked {
		meta["safety_limiter"] = "applied"
	}

	return meta
}

// buildFriendlyAnalysis summarizes an analysis for console output.
func buildFriendlyAnalysis(analysis *cambium.Analysis) map[string]any {
	issues := make([]any, 0, len(analysis.Issues))

	for _, issue := range analysis.Issues {
		marker := "  "
		if issue.Detected {
			marker = "!!"
		}

		issues = append(issues, fmt.Sprintf("%s [%s] %s: %s", marker, issue.Severity, issue.Check, issue.Summary))
	}

	props := map[string]any{
		"loudness": fmt.Sprintf("%s (range: %.1f LU)",
			db(analysis.Loudness.Integrated.LUFS, "LUFS"), analysis.Loudness.LoudnessRange),
		"true_peak":    db(analysis.TruePeak.TruePeakDb, "dBTP"),
		"peak":         db(analysis.Levels.PeakDb, "dBFS"),
		"rms":          db(analysis.Levels.RmsDb, "dBFS"),
		"crest_factor": db(analysis.Levels.CrestFactorDb, "dB"),
	}

	if analysis.Loudness.DRValue > 0 {
		props["dynamic_range"] = fmt.Sprintf("DR %.1f", analysis.Loudness.DRValue)
	}

	if st := analysis.Stereo; st != nil {
		props["stereo"] = fmt.Sprintf("width %.3f, balance %+.3f, correlation %.2f", st.Width, st.Balance, st.Correlation)
	}

	return map[string]any{
		"summary":    fmt.Sprintf("%d issues found (worst: %s)", analysis.IssueCount, analysis.WorstSeverity),
		"issues":     issues,
		"properties": props,
		"suggestion": fmt.Sprintf("%s: %s", analysis.Suggestion.Preset, analysis.Suggestion.Reason),
	}
}

func resultData(object string, result *cambium.Result, formatName string) *format.Data {
	if formatName == "console" {
		return &format.Data{Object: object, Meta: buildFriendlyResult(result)}
	}

	return &format.Data{Object: object, Meta: output.ResultToMap(result)}
}

func analysisData(object string, analysis *cambium.Analysis, formatName string) *format.Data {
	if formatName == "console" {
		return &format.Data{Object: object, Meta: buildFriendlyAnalysis(analysis)}
	}

	return &format.Data{Object: object, Meta: output.AnalysisToMap(analysis)}
}
