package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantize16(t *testing.T) {
	t.Parallel()

	out := quantize16([]float64{0, 1, -1, 1.7, -3, 0.5}, 2, 44100)

	assert.Equal(t, []int{0, 32767, -32767, 32767, -32767, 16384}, out.Data)
	assert.Equal(t, 2, out.Format.NumChannels)
	assert.Equal(t, 44100, out.Format.SampleRate)
}

func TestIntegerPCMScaling(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{0, 0.5, -1}, intsToFloat([]int{0, 1 << 14, -(1 << 15)}, 16))
	assert.Equal(t, []float64{0.5, -1}, intsToFloat([]int{1 << 22, -(1 << 23)}, 24))
	assert.Equal(t, []float64{0.5, -0.5}, s16leToFloat([]byte{0x00, 0x40, 0x00, 0xC0}))
	assert.Equal(t, []float64{-1}, s32leToFloat([]byte{0x00, 0x00, 0x00, 0x80}))
}

func TestFoldDualMono(t *testing.T) {
	t.Parallel()

	mono, ok := foldDualMono([]float64{0.5, 0.5, -0.25, -0.25, 0, 0})
	assert.True(t, ok)
	assert.Equal(t, []float64{0.5, -0.25, 0}, mono)

	_, ok = foldDualMono([]float64{0.5, 0.5, -0.25, -0.24})
	assert.False(t, ok, "differing channels stay stereo")

	_, ok = foldDualMono(nil)
	assert.False(t, ok)
}
