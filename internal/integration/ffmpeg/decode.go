package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/cambium/internal/integration/binary"
	"github.com/farcloser/cambium/internal/types"
)

// Decode returns the first audio stream of the file at path as interleaved little-endian PCM.
// ffmpeg reads the file itself rather than a pipe: MP4 family containers often store their
// index after the media data and cannot be decoded from a non-seekable input.
// Zero SampleRate or Channels in format keep the stream's own values.
func Decode(ctx context.Context, path string, format *types.PCMFormat) ([]byte, error) {
	ffmpegPath, found := binary.Available(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	args := []string{"-nostdin", "-v", "error", "-i", path, "-map", "0:a:0", "-vn"}

	if format.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(format.SampleRate))
	}

	if format.Channels > 0 {
		args = append(args, "-ac", strconv.FormatUint(uint64(format.Channels), 10))
	}

	sampleFmt := fmt.Sprintf("s%dle", format.BitDepth)
	args = append(args, "-f", sampleFmt, "-acodec", "pcm_"+sampleFmt, "pipe:1")

	slog.Debug("ffmpeg.Decode", "file path", path, "args", args)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer

	//nolint:gosec // path is the user-selected input file
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	switch {
	case err == nil:
		return stdout.Bytes(), nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: decoding %s took more than %v", fault.ErrTimeout, path, timeout)
	default:
		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, bytes.TrimSpace(stderr.Bytes()), err)
	}
}
