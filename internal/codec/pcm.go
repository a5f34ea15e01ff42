package codec

import (
	"encoding/binary"
	"math"

	"github.com/go-audio/audio"
)

// intsToFloat scales signed integer PCM of the given bit depth to [-1, 1).
func intsToFloat(data []int, bitDepth int) []float64 {
	scale := 1 / math.Ldexp(1, bitDepth-1)
	out := make([]float64, len(data))

	for i, v := range data {
		out[i] = float64(v) * scale
	}

	return out
}

// s16leToFloat converts interleaved little-endian 16-bit PCM.
func s16leToFloat(raw []byte) []float64 {
	out := make([]float64, len(raw)/2)

	for i := range out {
		out[i] = float64(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768 //nolint:gosec // two's complement reinterpretation
	}

	return out
}

// s32leToFloat converts interleaved little-endian 32-bit PCM.
func s32leToFloat(raw []byte) []float64 {
	out := make([]float64, len(raw)/4)

	for i := range out {
		out[i] = float64(int32(binary.LittleEndian.Uint32(raw[4*i:]))) / 2147483648 //nolint:gosec // two's complement reinterpretation
	}

	return out
}

func float32ToFloat(data []float32) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}

	return out
}

// quantize16 converts interleaved floats to clamped, rounded 16-bit integer PCM.
func quantize16(samples []float64, numChannels, sampleRate int) *audio.IntBuffer {
	const full = 32767

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(math.Round(max(-1, min(1, v)) * full))
	}

	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: OutputBitDepth,
	}
}

// foldDualMono returns the left channel of interleaved stereo whose channels are identical.
func foldDualMono(interleaved []float64) ([]float64, bool) {
	if len(interleaved) == 0 || len(interleaved)%2 != 0 {
		return nil, false
	}

	mono := make([]float64, len(interleaved)/2)

	for i := range mono {
		left, right := interleaved[2*i], interleaved[2*i+1]
		if left != right {
			return nil, false
		}

		mono[i] = left
	}

	return mono, true
}
