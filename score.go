package w4on2

import "fmt"

// headerSize is the fixed prefix before the pattern and track offset
// tables: a big-endian total size, a pattern count, and a track count.
const headerSize = 4

// Score is a parsed, validated w4on2 binary: the header above, followed by
// a big-endian u16 pattern offset table (one entry per pattern), a
// big-endian u16 track offset table (one entry per track), and then the
// pattern and track event data itself.
//
// Score wraps the raw bytes rather than copying them; the caller must not
// mutate data after a successful ParseScore.
type Score struct {
	data         []byte
	patternCount uint8
	trackCount   uint8
}

// ParseScore validates a packed w4on2 binary's header and offset tables and
// wraps it for use by Player. It does not decode any events.
func ParseScore(data []byte) (*Score, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("w4on2: header truncated: got %d bytes, need at least %d: %w", len(data), headerSize, ErrMalformedScore)
	}

	sz := int(beU16(data))
	patternCount := data[2]
	trackCount := data[3]

	if sz > len(data) {
		return nil, fmt.Errorf("w4on2: header declares size %d but only %d bytes were given: %w", sz, len(data), ErrMalformedScore)
	}
	if int(trackCount) > TrackCount {
		return nil, fmt.Errorf("w4on2: score declares %d tracks, runtime supports at most %d: %w", trackCount, TrackCount, ErrTooManyTracks)
	}
	if int(patternCount) > MaxPatterns {
		return nil, fmt.Errorf("w4on2: score declares %d patterns, at most %d are addressable: %w", patternCount, MaxPatterns, ErrTooManyPatterns)
	}

	offsetTablesEnd := headerSize + int(patternCount)*2 + int(trackCount)*2
	if offsetTablesEnd > sz {
		return nil, fmt.Errorf("w4on2: offset tables run past the declared size (%d > %d): %w", offsetTablesEnd, sz, ErrMalformedScore)
	}

	return &Score{data: data, patternCount: patternCount, trackCount: trackCount}, nil
}

// PatternCount reports how many patterns the score declares.
func (s *Score) PatternCount() int { return int(s.patternCount) }

// TrackCount reports how many tracks the score declares.
func (s *Score) TrackCount() int { return int(s.trackCount) }

func (s *Score) size() uint16 { return beU16(s.data) }

func (s *Score) firstTrackOffsetIdx() int { return headerSize + int(s.patternCount)*2 }

func (s *Score) patternOffset(idx int) int { return headerSize + idx*2 }

func (s *Score) trackOffset(idx int) int { return s.firstTrackOffsetIdx() + idx*2 }

func beU16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
