package cambium

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/farcloser/cambium/internal/codec"
)

// FileResult is the outcome of mastering one file.
type FileResult struct {
	Input      string
	Output     string
	Source     *codec.Info
	OutputSize int64
	Result     *Result
	Elapsed    time.Duration
}

// MasterFile decodes input, runs the chain and writes a 16-bit WAV to output.
// output is replaced atomically, and only once the whole chain and the encoding succeeded.
func (p *Pipeline) MasterFile(ctx context.Context, input, output string) (*FileResult, error) {
	start := time.Now()

	buf, info, err := codec.Read(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngest, err)
	}

	mastered, result, err := p.Process(ctx, buf)
	if err != nil {
		return nil, err
	}

	size, err := codec.Write(output, mastered)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)

	slog.Debug("pipeline.MasterFile", "input", input, "output", output,
		"lufs", result.Final.LUFS, "true_peak_dbtp", result.Final.PeakDbtp, "elapsed", elapsed)

	return &FileResult{
		Input:      input,
		Output:     output,
		Source:     info,
		OutputSize: size,
		Result:     result,
		Elapsed:    elapsed,
	}, nil
}
