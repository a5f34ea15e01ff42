package codec

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/farcloser/primordium/fault"
	"github.com/go-audio/wav"

	"github.com/farcloser/cambium/internal/types"
)

const (
	wavFormatTagPCM = 1
	outputMode      = 0o644
)

// ErrWriteFailure wraps any failure to produce the output file.
var ErrWriteFailure = errors.New("failed to write audio file")

// Write encodes buf as 16-bit PCM WAV at path and returns the size written.
// Samples are clamped to [-1, 1] and rounded. The file is written next to its destination
// and renamed into place, so path never holds a partial file.
func Write(path string, buf *types.Buffer) (int64, error) {
	slog.Debug("codec.Write", "file path", path, "frames", buf.Frames())

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // output directories are user-visible
		return 0, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	tmp, err := os.CreateTemp(dir, ".cambium-*.wav")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	tmpPath := tmp.Name()

	size, err := encode(tmp, buf)

	// CreateTemp is owner-only; the result gets the mode os.Create would give it.
	if err == nil {
		if chmodErr := tmp.Chmod(outputMode); chmodErr != nil {
			err = fmt.Errorf("%w: %w", ErrWriteFailure, chmodErr)
		}
	}

	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: %w", ErrWriteFailure, closeErr)
	}

	if err == nil {
		if renameErr := os.Rename(tmpPath, path); renameErr != nil {
			err = fmt.Errorf("%w: %w", ErrWriteFailure, renameErr)
		}
	}

	if err != nil {
		_ = os.Remove(tmpPath)

		return 0, err
	}

	return size, nil
}

func encode(file *os.File, buf *types.Buffer) (int64, error) {
	enc := wav.NewEncoder(file, buf.SampleRate(), OutputBitDepth, buf.Channels(), wavFormatTagPCM)

	if err := enc.Write(quantize16(buf.Interleaved(), buf.Channels(), buf.SampleRate())); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	stat, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return stat.Size(), nil
}
