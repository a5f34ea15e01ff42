// Package ffmpeg decodes containers the native decoders do not handle.
package ffmpeg

import "time"

const name = "ffmpeg"

// timeout bounds a full decode. Long tracks on slow storage need minutes.
const timeout = 5 * time.Minute

// Name of the decoding binary.
func Name() string {
	return name
}
