package w4on2

import (
	"fmt"
	"io"
)

// Dump writes a human-readable disassembly of the score to w: its header,
// each pattern's decoded event stream, and each track's pattern-ID
// sequence. It exists for tooling that wants to inspect a score without
// driving a Player/Runtime.
func (s *Score) Dump(w io.Writer) error {
	sz := s.size()
	if _, err := fmt.Fprintf(w, "score: %d bytes, %d pattern(s), %d track(s)\n", sz, s.patternCount, s.trackCount); err != nil {
		return err
	}

	firstTrackStart := beU16(s.data[s.trackOffset(0):])

	for i := 0; i < s.PatternCount(); i++ {
		offIdx := s.patternOffset(i)
		start := beU16(s.data[offIdx:])
		var end uint16
		if i < s.PatternCount()-1 {
			end = beU16(s.data[offIdx+2:])
		} else {
			end = firstTrackStart
		}

		if _, err := fmt.Fprintf(w, "pattern %d: bytes [%d,%d)\n", i, start, end); err != nil {
			return err
		}
		if err := s.dumpEvents(w, start, end); err != nil {
			return err
		}
	}

	for i := 0; i < s.TrackCount(); i++ {
		offIdx := s.trackOffset(i)
		start := beU16(s.data[offIdx:])
		var end uint16
		if i < s.TrackCount()-1 {
			end = beU16(s.data[offIdx+2:])
		} else {
			end = sz
		}

		if _, err := fmt.Fprintf(w, "track %d: bytes [%d,%d): patterns %v\n", i, start, end, s.data[start:end]); err != nil {
			return err
		}
	}

	return nil
}

// dumpEvents decodes and prints the event stream in s.data[start:end].
func (s *Score) dumpEvents(w io.Writer, start, end uint16) error {
	for cur := start; cur < end; {
		ev, size := DecodeEvent(s.data[cur:end])
		if size == 0 {
			return fmt.Errorf("w4on2: reserved opcode 0x%02X at offset %d: %w", s.data[cur], cur, ErrMalformedScore)
		}
		if _, err := fmt.Fprintf(w, "  +%-4d %-18s % X\n", cur, ev.Name, ev.Args); err != nil {
			return err
		}
		cur += uint16(size)
	}
	return nil
}
