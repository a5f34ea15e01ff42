// Package codec reads audio files into buffers and writes mastered buffers as 16-bit PCM WAV.
//
// WAV, AIFF, MP3 and Ogg Vorbis are decoded natively. Other containers (FLAC, M4A, ...) are
// decoded through ffprobe and ffmpeg when those binaries are installed.
//
// The MP3 decoder always yields stereo. An MP3 whose channels are sample-identical is read as
// mono, which restores mono sources and treats true dual-mono stereo the same way.
package codec

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
)

// MaxFileSize is the largest input accepted, in bytes.
const MaxFileSize = 500 << 20

// OutputBitDepth of every written file.
const OutputBitDepth = 16

var (
	// ErrUnsupportedFormat is returned for containers no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrTooManyChannels is returned for inputs with more than two channels.
	ErrTooManyChannels = errors.New("more than two channels")
	// ErrTooLarge is returned for inputs above MaxFileSize.
	ErrTooLarge = errors.New("file too large")
	// ErrEmpty is returned when a file decodes to zero frames.
	ErrEmpty = errors.New("no audio frames decoded")
)

// Decoder names the path a file was decoded through.
type Decoder string

const (
	DecoderWAV    Decoder = "wav"
	DecoderAIFF   Decoder = "aiff"
	DecoderMP3    Decoder = "mp3"
	DecoderVorbis Decoder = "vorbis"
	DecoderFFmpeg Decoder = "ffmpeg"
)

//nolint:gochecknoglobals // effectively const
var decoders = map[string]Decoder{
	".wav":  DecoderWAV,
	".wave": DecoderWAV,
	".aif":  DecoderAIFF,
	".aiff": DecoderAIFF,
	".mp3":  DecoderMP3,
	".ogg":  DecoderVorbis,
	".oga":  DecoderVorbis,
	".flac": DecoderFFmpeg,
	".m4a":  DecoderFFmpeg,
	".aac":  DecoderFFmpeg,
	".opus": DecoderFFmpeg,
}

// Info describes a decoded file.
type Info struct {
	Path       string
	Decoder    Decoder
	SampleRate int
	Channels   int
	BitDepth   int // 0 for lossy sources
	Size       int64
}

// Extensions returns the supported file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}

	slices.Sort(exts)

	return exts
}

// Supported reports whether path has a supported extension. The check is case-insensitive.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]

	return ok
}

func decoderFor(path string) (Decoder, bool) {
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]

	return dec, ok
}
