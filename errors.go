package cambium

import "errors"

var (
	// ErrUnknownPreset is returned by ParsePreset for names outside the catalog.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrInvalidConfig is returned when a preset or pipeline option is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrIngest is returned when an input cannot be decoded or prepared for processing.
	ErrIngest = errors.New("cannot ingest audio")
	// ErrPeakExceeded is logged when the limited signal still overshoots the ceiling.
	// The pipeline corrects it once and does not return it.
	ErrPeakExceeded = errors.New("true peak exceeds ceiling")
	// ErrNotDispatched marks batch files skipped because the batch was cancelled.
	ErrNotDispatched = errors.New("not processed")
)
