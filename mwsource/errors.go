package mwsource

import "errors"

var (
	// ErrLengthMismatch indicates that the list frequency and power
	// sequences have different lengths. Detected before any command is
	// sent; the instrument state is unchanged.
	ErrLengthMismatch = errors.New("mwsource: frequency and power list lengths do not match")

	// ErrPartialSweep indicates that only some of start/stop/step were
	// given. A sweep range is configured with all three or none.
	ErrPartialSweep = errors.New("mwsource: sweep requires start, stop and step together")

	// ErrUnknownTriggerEdge indicates an unsupported trigger edge value.
	ErrUnknownTriggerEdge = errors.New("mwsource: unknown trigger edge")
)
