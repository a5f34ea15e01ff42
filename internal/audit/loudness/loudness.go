package loudness

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/farcloser/cambium/internal/dsp/biquad"
	"github.com/farcloser/cambium/internal/types"
)

// ErrUnsupportedSampleRate is returned for rates the meter is not calibrated for. Resample first.
var ErrUnsupportedSampleRate = errors.New("unsupported sample rate for loudness metering")

const (
	// BS.1770 loudness offset.
	offset = -0.691

	absoluteGate    = -70.0
	relativeGate    = -10.0
	lraRelativeGate = -20.0
)

// K-weighting filter coefficients for the given sample rate.
// Pre-filter (high shelf) + RLB weighting (high pass).
func kWeighting(sampleRate int) (pre, rlb biquad.Coefficients) {
	// Coefficients from ITU-R BS.1770-4
	// These are computed from the analog prototype transfer functions
	fs := float64(sampleRate)

	// Pre-filter (high shelf)
	// Models the acoustic effects of the head
	f0 := 1681.974450955533
	G := 3.999843853973347
	Q := 0.7071752369554196

	K := math.Tan(math.Pi * f0 / fs)
	Vh := math.Pow(10, G/20)
	Vb := math.Pow(Vh, 0.4996667741545416)

	a0 := 1 + K/Q + K*K
	pre.B0 = (Vh + Vb*K/Q + K*K) / a0
	pre.B1 = 2 * (K*K - Vh) / a0
	pre.B2 = (Vh - Vb*K/Q + K*K) / a0
	pre.A1 = 2 * (K*K - 1) / a0
	pre.A2 = (1 - K/Q + K*K) / a0

	// RLB weighting (high pass)
	rlb = biquad.HighPass(38.13547087602444, 0.5003270373238773, sampleRate)

	return pre, rlb
}

// Meter measures BS.1770 loudness at one sample rate.
type Meter struct {
	sampleRate int
	pre, rlb   biquad.Coefficients
}

// NewMeter returns a meter for 44100 or 48000 Hz.
func NewMeter(sampleRate int) (*Meter, error) {
	switch sampleRate {
	case 44100, 48000:
	default:
		return nil, fmt.Errorf("%w: %d Hz", ErrUnsupportedSampleRate, sampleRate)
	}

	pre, rlb := kWeighting(sampleRate)

	return &Meter{sampleRate: sampleRate, pre: pre, rlb: rlb}, nil
}

// SampleRate the meter was built for.
func (m *Meter) SampleRate() int {
	return m.sampleRate
}

// Integrated returns the gated integrated loudness.
// Silent or too-short buffers produce a degenerate reading, not an error.
// An error (types.ErrMeasurement) means the buffer could not be measured at all.
func (m *Meter) Integrated(buf *types.Buffer) (types.LoudnessReading, error) {
	power, err := m.weightedPower(buf)
	if err != nil {
		return types.Degenerate(), err
	}

	momentary := blockPowers(power, m.sampleRate*400/1000, m.sampleRate/10)

	return integrated(momentary), nil
}

// Analyze returns integrated loudness, loudness range, window maxima and the DR value.
func (m *Meter) Analyze(buf *types.Buffer) (*types.LoudnessResult, error) {
	power, err := m.weightedPower(buf)
	if err != nil {
		return nil, err
	}

	hop := m.sampleRate / 10
	momentary := blockPowers(power, m.sampleRate*400/1000, hop)
	shortTerm := blockPowers(power, m.sampleRate*3, hop)

	return &types.LoudnessResult{
		Integrated:    integrated(momentary),
		MomentaryMax:  maxLoudness(momentary),
		ShortTermMax:  maxLoudness(shortTerm),
		LoudnessRange: loudnessRange(shortTerm),
		DRValue:       dynamicRange(buf),
		Frames:        uint64(buf.Frames()), //nolint:gosec // frame counts are non-negative
	}, nil
}

// weightedPower returns the K-weighted, channel-weighted power of every frame.
func (m *Meter) weightedPower(buf *types.Buffer) ([]float64, error) {
	if buf.SampleRate() != m.sampleRate {
		return nil, fmt.Errorf("%w: buffer at %d Hz, meter at %d Hz", types.ErrMeasurement, buf.SampleRate(), m.sampleRate)
	}

	if !buf.Finite() {
		return nil, fmt.Errorf("%w: non-finite samples", types.ErrMeasurement)
	}

	power := make([]float64, buf.Frames())

	for ch := range buf.Channels() {
		var preState, rlbState biquad.State

		// Channel weights are 1.0 for mono and stereo; surround weighting does not apply.
		for i, sample := range buf.Samples(ch) {
			filtered := preState.Process(&m.pre, sample)
			filtered = rlbState.Process(&m.rlb, filtered)
			power[i] += filtered * filtered
		}
	}

	return power, nil
}

// blockPowers returns the mean power of every window of size frames, advancing by hop.
func blockPowers(power []float64, size, hop int) []float64 {
	if size <= 0 || hop <= 0 || len(power) < size {
		return nil
	}

	prefix := make([]float64, len(power)+1)
	for i, p := range power {
		prefix[i+1] = prefix[i] + p
	}

	blocks := make([]float64, 0, (len(power)-size)/hop+1)
	for start := 0; start+size <= len(power); start += hop {
		blocks = append(blocks, max(prefix[start+size]-prefix[start], 0)/float64(size))
	}

	return blocks
}

func toLUFS(power float64) float64 {
	return offset + 10*math.Log10(power)
}

func integrated(powers []float64) types.LoudnessReading {
	// First pass: absolute gate at -70 LUFS
	var (
		sum   float64
		count int
	)

	for _, p := range powers {
		if toLUFS(p) > absoluteGate {
			sum += p
			count++
		}
	}

	if count == 0 {
		return types.Degenerate()
	}

	// Relative threshold: -10 LU below the absolute-gated mean
	threshold := toLUFS(sum/float64(count)) + relativeGate

	// Second pass: relative gate
	sum = 0
	count = 0

	for _, p := range powers {
		if toLUFS(p) > threshold {
			sum += p
			count++
		}
	}

	if count == 0 {
		return types.Degenerate()
	}

	return types.LoudnessReading{LUFS: toLUFS(sum / float64(count)), Status: types.LoudnessOK}
}

func maxLoudness(powers []float64) float64 {
	loudest := math.Inf(-1)

	for _, p := range powers {
		loudest = max(loudest, toLUFS(p))
	}

	return loudest
}

func loudnessRange(powers []float64) float64 {
	if len(powers) < 2 {
		return 0
	}

	// Convert to LUFS and filter by absolute gate
	var lufsValues []float64

	for _, p := range powers {
		if lufs := toLUFS(p); lufs > absoluteGate {
			lufsValues = append(lufsValues, lufs)
		}
	}

	if len(lufsValues) < 2 {
		return 0
	}

	// Relative gate at -20 LU below the mean power
	var sum float64
	for _, l := range lufsValues {
		sum += math.Pow(10, (l-offset)/10)
	}

	threshold := toLUFS(sum/float64(len(lufsValues))) + lraRelativeGate

	var gated []float64

	for _, l := range lufsValues {
		if l > threshold {
			gated = append(gated, l)
		}
	}

	if len(gated) < 2 {
		return 0
	}

	// LRA = difference between 95th and 10th percentile
	sort.Float64s(gated)
	low := gated[int(float64(len(gated)-1)*0.10)]
	high := gated[int(float64(len(gated)-1)*0.95)]

	return high - low
}

type drBlock struct {
	peak float64
	rms  float64
}

// dynamicRange computes the DR value over 3s blocks of unweighted samples.
func dynamicRange(buf *types.Buffer) float64 {
	sampleRate := buf.SampleRate()
	blockSize := sampleRate * 3
	numChannels := buf.Channels()

	var (
		blocks    []drBlock
		blockSum  float64
		blockPeak float64
		inBlock   int
	)

	for i := range buf.Frames() {
		var frameSum float64

		for ch := range numChannels {
			sample := buf.Samples(ch)[i]
			frameSum += sample * sample
			blockPeak = max(blockPeak, math.Abs(sample))
		}

		blockSum += frameSum / float64(numChannels)
		inBlock++

		if inBlock >= blockSize {
			blocks = append(blocks, drBlock{peak: blockPeak, rms: math.Sqrt(blockSum / float64(inBlock))})
			blockSum, blockPeak, inBlock = 0, 0, 0
		}
	}

	// Final partial block, at least 1 second
	if inBlock > sampleRate {
		blocks = append(blocks, drBlock{peak: blockPeak, rms: math.Sqrt(blockSum / float64(inBlock))})
	}

	if len(blocks) == 0 {
		return 0
	}

	peaks := make([]float64, len(blocks))
	rmsValues := make([]float64, len(blocks))

	for i, b := range blocks {
		peaks[i] = b.peak
		rmsValues[i] = b.rms
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(peaks)))
	sort.Sort(sort.Reverse(sort.Float64Slice(rmsValues)))

	// Use second-highest peak (avoid outliers)
	peak := peaks[min(1, len(peaks)-1)]

	// Average top 20% of RMS values
	top := max(len(rmsValues)/5, 1)

	var rmsSum float64
	for _, r := range rmsValues[:top] {
		rmsSum += r
	}

	rms := rmsSum / float64(top)
	if rms == 0 || peak == 0 {
		return 0
	}

	return 20 * math.Log10(peak/rms)
}
