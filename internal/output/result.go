// Package output provides shared result serialization for cambium JSON output.
//
// Non-finite values (the -Inf loudness of silence, NaN deltas) have no JSON encoding and are
// emitted as null.
package output

import (
	"math"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/types"
)

// Number returns v, or nil when v is NaN or infinite.
func Number(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return v
}

// PresetToMap converts a preset configuration using its wire names.
func PresetToMap(config cambium.PresetConfig) map[string]any {
	return map[string]any{
		"name":            config.Name,
		"target_lufs":     config.TargetLUFS,
		"true_peak":       config.TruePeakDbtp,
		"comp_threshold":  config.CompThresholdDb,
		"comp_ratio":      config.CompRatio,
		"comp_attack":     config.CompAttackMs,
		"comp_release":    config.CompReleaseMs,
		"use_compression": config.UseCompression,
	}
}

// MeasurementToMap converts a stage measurement.
func MeasurementToMap(measurement cambium.StageMeasurement) map[string]any {
	return map[string]any{
		"lufs":             Number(measurement.LUFS),
		"peak_db":          Number(measurement.PeakDb),
		"peak_dbtp":        Number(measurement.PeakDbtp),
		"rms_db":           Number(measurement.RmsDb),
		"crest_factor_db":  Number(measurement.CrestFactorDb),
		"dynamic_range_db": Number(measurement.DynamicRangeDb),
	}
}

// ResultToMap converts a pipeline result into the canonical map structure
// used for JSON and JSONL serialization.
func ResultToMap(result *cambium.Result) map[string]any {
	stages := make([]any, 0, len(result.Stages))
	perStage := make(map[string]any, len(result.Stages))

	for _, stage := range result.Stages {
		stages = append(stages, string(stage))
		perStage[string(stage)] = MeasurementToMap(result.PerStage[stage])
	}

	trace := make([]any, 0, len(result.Trace))
	for _, state := range result.Trace {
		trace = append(trace, state.String())
	}

	norm := result.Normalization

	normalization := map[string]any{
		"path":            norm.Path.String(),
		"initial_lufs":    Number(norm.InitialLUFS),
		"gain_db":         Number(norm.GainDb),
		"test_peak_dbtp":  Number(norm.TestPeakDbtp),
		"applied_gain_db": Number(norm.AppliedGainDb),
		"safe_peak_dbtp":  Number(norm.SafePeakDbtp),
		"secondary_lufs":  Number(norm.SecondaryLUFS),
		"correction_db":   Number(norm.CorrectionDb),
		"final_lufs":      Number(norm.FinalLUFS),
		"final_peak_dbtp": Number(norm.FinalPeakDbtp),
	}

	if norm.Err != nil {
		normalization["error"] = norm.Err.Error()
	}

	return map[string]any{
		"preset":             PresetToMap(result.Preset),
		"original":           MeasurementToMap(result.Original),
		"final":              MeasurementToMap(result.Final),
		"stages":             stages,
		"per_stage":          perStage,
		"normalization":      normalization,
		"peak_rechecked":     result.PeakRechecked,
		"trace":              trace,
		"duration_sec":       result.DurationSec,
		"channels":           result.Channels,
		"sample_rate":        result.SampleRate,
		"source_sample_rate": result.SourceSampleRate,
	}
}

// RecordToMap converts a batch record.
func RecordToMap(record *cambium.FileRecord) map[string]any {
	meta := map[string]any{
		"input":      record.Input,
		"output":     record.Output,
		"elapsed_ms": float64(record.Elapsed.Microseconds()) / 1000.0,
	}

	if record.Err != nil {
		meta["error"] = record.Err.Error()

		return meta
	}

	meta["input_size"] = record.InputSize
	meta["output_size"] = record.OutputSize

	if record.Result != nil {
		meta["result"] = ResultToMap(record.Result)
	}

	return meta
}

// BatchToMap converts the batch summary, without per-file records.
func BatchToMap(result *cambium.BatchResult) map[string]any {
	failures := make([]any, 0, result.FilesFailed)

	for idx := range result.Records {
		if record := &result.Records[idx]; !record.OK() {
			failures = append(failures, map[string]any{
				"input": record.Input,
				"error": record.Err.Error(),
			})
		}
	}

	return map[string]any{
		"files_processed":      result.FilesProcessed,
		"files_failed":         result.FilesFailed,
		"total_time_sec":       result.TotalTime.Seconds(),
		"avg_time_per_file_ms": float64(result.AvgTimePerFile.Microseconds()) / 1000.0,
		"failures":             failures,
	}
}

// AnalysisToMap converts an analysis.
func AnalysisToMap(analysis *cambium.Analysis) map[string]any {
	issues := make([]any, 0, len(analysis.Issues))
	for _, issue := range analysis.Issues {
		issues = append(issues, map[string]any{
			"check":    issue.Check.String(),
			"detected": issue.Detected,
			"severity": issue.Severity.String(),
			"summary":  issue.Summary,
		})
	}

	meta := map[string]any{
		"summary": map[string]any{
			"issue_count":    analysis.IssueCount,
			"worst_severity": analysis.WorstSeverity.String(),
		},
		"issues": issues,
		"suggestion": map[string]any{
			"preset": analysis.Suggestion.Preset.String(),
			"reason": analysis.Suggestion.Reason,
		},
		"loudness":     LoudnessToMap(analysis.Loudness),
		"true_peak":    TruePeakToMap(analysis.TruePeak),
		"levels":       LevelsToMap(analysis.Levels),
		"clipping":     ClippingToMap(analysis.Clipping),
		"dc_offset":    DCOffsetToMap(analysis.DCOffset),
		"duration_sec": analysis.DurationSec,
		"sample_rate":  analysis.SampleRate,
		"channels":     analysis.Channels,
	}

	if st := analysis.Stereo; st != nil {
		meta["stereo"] = map[string]any{
			"correlation":  st.Correlation,
			"width":        st.Width,
			"balance":      st.Balance,
			"left_rms_db":  st.LeftRmsDb,
			"right_rms_db": st.RightRmsDb,
			"imbalance_db": st.ImbalanceDb,
			"frames":       st.Frames,
		}
	}

	return meta
}

// ComparisonToMap converts a comparison with both analyses.
func ComparisonToMap(comparison *cambium.Comparison) map[string]any {
	warnings := make([]any, 0, len(comparison.Warnings))
	for _, warning := range comparison.Warnings {
		warnings = append(warnings, warning)
	}

	return map[string]any{
		"original": AnalysisToMap(comparison.Original),
		"mastered": AnalysisToMap(comparison.Mastered),
		"delta": map[string]any{
			"lufs":            Number(comparison.LoudnessDeltaLU),
			"peak_db":         Number(comparison.PeakDeltaDb),
			"true_peak_db":    Number(comparison.TruePeakDeltaDb),
			"rms_db":          Number(comparison.RmsDeltaDb),
			"crest_factor_db": Number(comparison.CrestDeltaDb),
			"stereo_width":    Number(comparison.WidthDelta),
			"balance":         Number(comparison.BalanceDelta),
		},
		"warnings": warnings,
	}
}

// LoudnessToMap converts loudness analysis results to a map.
func LoudnessToMap(result *types.LoudnessResult) map[string]any {
	return map[string]any{
		"integrated_lufs": Number(result.Integrated.LUFS),
		"status":          result.Integrated.Status.String(),
		"short_term_max":  Number(result.ShortTermMax),
		"momentary_max":   Number(result.MomentaryMax),
		"loudness_range":  result.LoudnessRange,
		"dr_value":        result.DRValue,
		"frames":          result.Frames,
	}
}

// TruePeakToMap converts true peak results to a map.
func TruePeakToMap(result *types.TruePeakResult) map[string]any {
	return map[string]any{
		"true_peak_db":   result.TruePeakDb,
		"sample_peak_db": result.SamplePeakDb,
		"isp_count":      result.ISPCount,
		"isp_max_db":     result.ISPMaxDb,
		"frames":         result.Frames,
	}
}

// LevelsToMap converts level statistics to a map.
func LevelsToMap(result *types.LevelStats) map[string]any {
	return map[string]any{
		"peak_db":         result.PeakDb,
		"rms_db":          result.RmsDb,
		"crest_factor_db": result.CrestFactorDb,
		"samples":         result.Samples,
	}
}

// ClippingToMap converts clipping detection results to a map.
func ClippingToMap(result *types.ClippingDetection) map[string]any {
	return map[string]any{
		"events":          result.Events,
		"clipped_samples": result.ClippedSamples,
		"longest_run":     result.LongestRun,
		"samples":         result.Samples,
		"percentage":      result.Percentage,
	}
}

// DCOffsetToMap converts DC offset results to a map.
func DCOffsetToMap(result *types.DCOffsetResult) map[string]any {
	return map[string]any{
		"offset":    result.Offset,
		"offset_db": result.OffsetDb,
		"channels":  result.Channels,
	}
}
