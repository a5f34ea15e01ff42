//nolint:staticcheck // too dumb on Db vs. DB
package types

import "math"

// FloorDb is the level reported for digital silence.
const FloorDb = -120.0

type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// PCMFormat describes raw little-endian signed PCM, as produced by the ffmpeg extractor.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

// LoudnessStatus tells a usable integrated loudness apart from the zero-energy sentinel.
type LoudnessStatus int

const (
	// LoudnessOK means at least one gating block survived.
	LoudnessOK LoudnessStatus = iota
	// LoudnessDegenerate means the buffer is silent, or shorter than one gating block.
	LoudnessDegenerate
)

func (s LoudnessStatus) String() string {
	switch s {
	case LoudnessOK:
		return "ok"
	case LoudnessDegenerate:
		return "degenerate"
	}

	return "unknown"
}

// LoudnessReading is the outcome of an integrated loudness measurement.
// A degenerate reading always carries LUFS = -Inf.
type LoudnessReading struct {
	LUFS   float64
	Status LoudnessStatus
}

// Degenerate returns the zero-energy sentinel reading.
func Degenerate() LoudnessReading {
	return LoudnessReading{LUFS: math.Inf(-1), Status: LoudnessDegenerate}
}

// OK reports whether the reading carries a real loudness value.
func (r LoudnessReading) OK() bool {
	return r.Status == LoudnessOK
}

/*
Loudness Analysis Interpretation

| IntegratedLUFS | Context                                 |
|----------------|-----------------------------------------|
| -23 to -18     | Broadcast/podcast range                 |
| -16 to -14     | Streaming normalized master             |
| -12 to -10     | Loud master (default mastering target)  |
| -9 to -6       | Very loud, heavily limited              |

## Loudness Range (LRA)

| LRA (LU) | Interpretation                          |
|----------|-----------------------------------------|
| < 5      | Very compressed, little dynamics        |
| 5-10     | Moderate dynamics, typical pop/rock     |
| 10-15    | Good dynamics                           |
| > 15     | Wide dynamics, classical/jazz           |

DRValue is 20*log10(second highest 3s block peak / mean of the loudest 20% block RMS).
*/

// LoudnessResult contains the full loudness analysis of a buffer.
type LoudnessResult struct {
	Integrated    LoudnessReading
	ShortTermMax  float64 // max 3s window, LUFS
	MomentaryMax  float64 // max 400ms window, LUFS
	LoudnessRange float64 // LRA in LU

	DRValue float64 // 0 when shorter than one 1s block
	Frames  uint64
}

/*
True Peak Interpretation

| TruePeakDb  | Compliance                               |
|-------------|------------------------------------------|
| < -2.0 dBTP | ATSC A/85 safe                           |
| < -1.0 dBTP | EBU R128, most streaming platforms safe  |
| < 0 dBTP    | No overs, no headroom for lossy encoding |
| > 0 dBTP    | Inter-sample overs. Will clip.           |

TruePeakDb is never below SamplePeakDb: the oversampled estimate is combined with the
sample peak, so scaling a buffer by g shifts TruePeakDb by exactly 20*log10(g).
*/

// TruePeakResult contains the peak analysis.
type TruePeakResult struct {
	TruePeakDb   float64 // max of reconstructed and sample level, dBTP
	SamplePeakDb float64 // max original sample level, dBFS
	ISPCount     uint64  // reconstructed values above 0 dBFS
	ISPMaxDb     float64 // worst overshoot above 0 dBFS
	Frames       uint64
}

// LevelStats contains sample domain levels.
type LevelStats struct {
	PeakDb        float64
	RmsDb         float64
	CrestFactorDb float64
	Samples       uint64
}

// StereoResult contains stereo field statistics. Zero valued for mono.
type StereoResult struct {
	Correlation float64 // 1.0 = identical, 0 = uncorrelated, -1.0 = inverted
	Width       float64 // side RMS / mid RMS
	Balance     float64 // (R-L)/(R+L) RMS; positive = right louder
	LeftRmsDb   float64
	RightRmsDb  float64
	ImbalanceDb float64 // LeftRmsDb - RightRmsDb; positive = left louder
	Frames      uint64
}

// ClippingDetection counts samples at or above the clip threshold.
type ClippingDetection struct {
	Events         uint64 // runs of 2+ consecutive clipped samples
	ClippedSamples uint64
	LongestRun     uint64
	Samples        uint64
	Percentage     float64
}

/*
DC Offset Interpretation

| Offset (abs) | OffsetDb      | Interpretation                    |
|--------------|---------------|-----------------------------------|
| < 0.001      | < -60 dB      | Clean.                            |
| 0.001-0.01   | -60 to -40 dB | Minor. Removed by the high-pass.  |
| > 0.01       | > -40 dB      | Noticeable. Wastes headroom.      |
*/

// DCOffsetResult contains DC offset results.
type DCOffsetResult struct {
	Offset   float64   // largest absolute per-channel mean
	OffsetDb float64   // 20*log10(Offset)
	Channels []float64 // per-channel mean
}
