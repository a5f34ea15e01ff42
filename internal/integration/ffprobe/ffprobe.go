// Package ffprobe describes media files through the ffprobe binary.
package ffprobe

import "time"

const name = "ffprobe"

// timeout is generous: a probe may have to wait for a disk to spin up or a network share.
const timeout = time.Minute

// Name of the probing binary.
func Name() string {
	return name
}
