package codec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/farcloser/primordium/fault"
	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/farcloser/cambium/internal/integration/binary"
	"github.com/farcloser/cambium/internal/integration/ffmpeg"
	"github.com/farcloser/cambium/internal/integration/ffprobe"
	"github.com/farcloser/cambium/internal/types"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	// go-mp3 always produces 16-bit stereo and does not expose the channel mode.
	// A mono source comes out as identical channels and is folded back.
	mp3Channels = 2
)

// Read decodes the file at path. Files above MaxFileSize, with more than two channels,
// or decoding to zero frames are rejected.
func Read(ctx context.Context, path string) (*types.Buffer, *Info, error) {
	slog.Debug("codec.Read", "file path", path, "stage", "start")

	dec, ok := decoderFor(path)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if stat.Size() > MaxFileSize {
		return nil, nil, fmt.Errorf("%w: %s is %.1f MB (limit %d MB)",
			ErrTooLarge, path, float64(stat.Size())/(1<<20), MaxFileSize>>20)
	}

	file, err := os.Open(path) //nolint:gosec // user-specified audio files
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	info := &Info{Path: path, Decoder: dec, Size: stat.Size()}

	var buf *types.Buffer

	switch dec {
	case DecoderWAV:
		buf, err = readWAV(file, info)
		if err != nil && binary.AllAvailable(ffprobe.Name(), ffmpeg.Name()) {
			slog.Debug("codec.Read", "file path", path, "stage", "fallback", "error", err)

			buf, err = readFFmpeg(ctx, info)
		}
	case DecoderAIFF:
		buf, err = readAIFF(file, info)
	case DecoderMP3:
		buf, err = readMP3(file, info)
	case DecoderVorbis:
		buf, err = readVorbis(file, info)
	case DecoderFFmpeg:
		buf, err = readFFmpeg(ctx, info)
	}

	if err != nil {
		return nil, nil, err
	}

	if buf.Frames() == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	slog.Debug("codec.Read", "file path", path, "stage", "done",
		"decoder", info.Decoder, "rate", info.SampleRate, "channels", info.Channels, "frames", buf.Frames())

	return buf, info, nil
}

func checkChannels(channels int) error {
	if channels > types.MaxChannels {
		return fmt.Errorf("%w: %d", ErrTooManyChannels, channels)
	}

	if channels < 1 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}

	return nil
}

func readWAV(file *os.File, info *Info) (*types.Buffer, error) {
	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}

	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: WAV format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	if err := nativeDepth(int(dec.BitDepth)); err != nil {
		return nil, err
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return fromIntBuffer(pcm.Data, pcm.Format.NumChannels, pcm.Format.SampleRate, int(dec.BitDepth), info)
}

func readAIFF(file *os.File, info *Info) (*types.Buffer, error) {
	dec := aiff.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid AIFF file", ErrUnsupportedFormat)
	}

	if err := nativeDepth(int(dec.BitDepth)); err != nil {
		return nil, err
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return fromIntBuffer(pcm.Data, pcm.Format.NumChannels, pcm.Format.SampleRate, int(dec.BitDepth), info)
}

func nativeDepth(bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, bitDepth)
	}
}

func fromIntBuffer(data []int, channels, rate, bitDepth int, info *Info) (*types.Buffer, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}

	info.SampleRate = rate
	info.Channels = channels
	info.BitDepth = bitDepth

	return types.NewBufferFromInterleaved(intsToFloat(data, bitDepth), channels, rate)
}

func readMP3(file io.Reader, info *Info) (*types.Buffer, error) {
	dec, err := gomp3.NewDecoder(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	info.SampleRate = dec.SampleRate()
	samples := s16leToFloat(raw)

	if mono, ok := foldDualMono(samples); ok {
		info.Channels = 1

		return types.NewBufferFromInterleaved(mono, 1, info.SampleRate)
	}

	info.Channels = mp3Channels

	return types.NewBufferFromInterleaved(samples, mp3Channels, info.SampleRate)
}

func readVorbis(file io.Reader, info *Info) (*types.Buffer, error) {
	data, format, err := oggvorbis.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if err = checkChannels(format.Channels); err != nil {
		return nil, err
	}

	info.SampleRate = format.SampleRate
	info.Channels = format.Channels

	return types.NewBufferFromInterleaved(float32ToFloat(data), format.Channels, format.SampleRate)
}

// readFFmpeg probes the container, then has ffmpeg decode it to 32-bit PCM at its own rate and layout.
func readFFmpeg(ctx context.Context, info *Info) (*types.Buffer, error) {
	stream, err := ffprobe.FirstAudio(ctx, info.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	rate, err := stream.Rate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	if err = checkChannels(stream.Channels); err != nil {
		return nil, err
	}

	raw, err := ffmpeg.Decode(ctx, info.Path, &types.PCMFormat{
		SampleRate: rate,
		BitDepth:   types.Depth32,
		Channels:   uint(stream.Channels), //nolint:gosec // validated above
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	info.Decoder = DecoderFFmpeg
	info.SampleRate = rate
	info.Channels = stream.Channels
	info.BitDepth = stream.BitsPerSample

	return types.NewBufferFromInterleaved(s32leToFloat(raw), stream.Channels, rate)
}
