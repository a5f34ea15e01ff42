package cambium_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farcloser/cambium/internal/codec"
	"github.com/farcloser/cambium/internal/types"
)

// signal describes a synthetic test buffer.
type signal struct {
	freq       float64
	amplitude  float64
	seconds    float64
	rate       int
	channels   int
	clickEvery int // frames between full scale clicks, 0 for none
}

func (s signal) buffer(t *testing.T) *types.Buffer {
	t.Helper()

	frames := int(s.seconds * float64(s.rate))
	data := make([][]float64, s.channels)

	for ch := range data {
		data[ch] = make([]float64, frames)
		// Right channel slightly quieter and phase shifted, to keep stereo material honest.
		amplitude := s.amplitude * math.Pow(0.9, float64(ch))
		phase := float64(ch) * math.Pi / 8

		for i := range data[ch] {
			data[ch][i] = amplitude * math.Sin(2*math.Pi*s.freq*float64(i)/float64(s.rate)+phase)
			if s.clickEvery > 0 && i%s.clickEvery == s.clickEvery/2 {
				data[ch][i] = 1
			}
		}
	}

	buf, err := types.NewBuffer(data, s.rate)
	require.NoError(t, err)

	return buf
}

func (s signal) write(t *testing.T, path string) string {
	t.Helper()

	_, err := codec.Write(path, s.buffer(t))
	require.NoError(t, err)

	return path
}

func dbfs(db float64) float64 {
	return math.Pow(10, db/20)
}

func tempPath(t *testing.T, name string) string {
	t.Helper()

	return filepath.Join(t.TempDir(), name)
}
