package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/codec"
	"github.com/farcloser/cambium/internal/types"
)

func writeTone(t *testing.T, path string) {
	t.Helper()

	samples := make([]float64, 44100)
	for i := range samples {
		samples[i] = 0.25 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}

	buf, err := types.NewBuffer([][]float64{samples}, 44100)
	require.NoError(t, err)

	_, err = codec.Write(path, buf)
	require.NoError(t, err)
}

func readReport(t *testing.T, path string) []map[string]any {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	var lines []map[string]any

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line map[string]any

		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))

		lines = append(lines, line)
	}

	require.NoError(t, scanner.Err())

	return lines
}

func TestMasterFolderInterrupted(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	for idx := range 4 {
		writeTone(t, filepath.Join(folder, fmt.Sprintf("track%d.wav", idx)))
	}

	pipeline, err := cambium.NewPipeline(cambium.PresetDefault.Config(), cambium.DefaultOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := filepath.Join(t.TempDir(), "report.jsonl")

	result, err := masterFolder(ctx, &batchRun{
		folder:   folder,
		report:   report,
		workers:  2,
		pipeline: pipeline,
	})
	require.NoError(t, err)

	require.Len(t, result.Records, 4)
	assert.Equal(t, 0, result.FilesProcessed)
	assert.Equal(t, 4, result.FilesFailed)

	for idx := range result.Records {
		require.ErrorIs(t, result.Records[idx].Err, cambium.ErrNotDispatched)
		require.ErrorIs(t, result.Records[idx].Err, context.Canceled)
	}

	entries, err := os.ReadDir(filepath.Join(folder, "mastered"))
	if err == nil {
		assert.Empty(t, entries, "nothing was started, nothing may be written")
	}

	lines := readReport(t, report)
	require.Len(t, lines, 5)

	summary, ok := lines[4]["summary"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 4, summary["files_failed"], 0)

	assert.FileExists(t, report+".gz")
}

func TestMasterFolderCompletes(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	writeTone(t, filepath.Join(folder, "a.wav"))
	writeTone(t, filepath.Join(folder, "b.wav"))

	pipeline, err := cambium.NewPipeline(cambium.PresetGentle.Config(), cambium.DefaultOptions())
	require.NoError(t, err)

	result, err := masterFolder(context.Background(), &batchRun{
		folder:   folder,
		workers:  2,
		pipeline: pipeline,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesProcessed)
	assert.Zero(t, result.FilesFailed)

	for _, name := range []string{"a_mastered.wav", "b_mastered.wav"} {
		stat, err := os.Stat(filepath.Join(folder, "mastered", name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), stat.Mode().Perm())
	}
}

func TestMasterFolderEmpty(t *testing.T) {
	t.Parallel()

	pipeline, err := cambium.NewPipeline(cambium.PresetDefault.Config(), cambium.DefaultOptions())
	require.NoError(t, err)

	_, err = masterFolder(context.Background(), &batchRun{folder: t.TempDir(), pipeline: pipeline})
	require.ErrorIs(t, err, errNoAudioFiles)
}
