package w4on2

import "errors"

// Sentinel errors returned by ParseScore. Wrap with %w to add detail; test
// with errors.Is.
var (
	// ErrMalformedScore is returned when a score's header, size field, or
	// offset tables are internally inconsistent.
	ErrMalformedScore = errors.New("w4on2: malformed score")

	// ErrTooManyTracks is returned when a score declares more tracks than
	// the runtime has track slots for.
	ErrTooManyTracks = errors.New("w4on2: too many tracks")

	// ErrTooManyPatterns is returned when a score declares more patterns
	// than fit in a pattern offset table entry.
	ErrTooManyPatterns = errors.New("w4on2: too many patterns")
)
