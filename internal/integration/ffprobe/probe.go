//nolint:tagliatelle
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/cambium/internal/integration/binary"
)

var (
	// ErrNoAudioStream is returned when a container carries no audio stream.
	ErrNoAudioStream = errors.New("no audio streams found")

	errInvalidStream = errors.New("invalid audio stream properties")
)

// Stream is the part of an ffprobe audio stream description the decoder relies on.
type Stream struct {
	CodecName     string `json:"codec_name"`                // flac, aac, opus
	SampleRate    string `json:"sample_rate,omitempty"`     // ffprobe reports it as a string
	Channels      int    `json:"channels,omitempty"`        // 2
	BitsPerSample int    `json:"bits_per_sample,omitempty"` // 0 for lossy codecs
	SampleFmt     string `json:"sample_fmt,omitempty"`      // s16, s32, fltp
}

// Rate parses the stream sample rate.
func (s *Stream) Rate() (int, error) {
	rate, err := strconv.Atoi(s.SampleRate)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("%w: sample rate %q", errInvalidStream, s.SampleRate)
	}

	return rate, nil
}

// FirstAudio runs ffprobe on filePath and describes its first audio stream.
func FirstAudio(ctx context.Context, filePath string) (*Stream, error) {
	ffprobePath, found := binary.Available(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	slog.Debug("ffprobe.FirstAudio", "file path", filePath)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer

	//nolint:gosec // filePath is intentionally user-provided input for probing media files
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_streams",
		"-of", "json",
		filePath,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: probing %s took more than %v", fault.ErrTimeout, filePath, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, bytes.TrimSpace(stderr.Bytes()), err)
	}

	var probed struct {
		Streams []Stream `json:"streams"`
	}

	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	if len(probed.Streams) == 0 {
		return nil, ErrNoAudioStream
	}

	return &probed.Streams[0], nil
}
