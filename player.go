package w4on2

// PlayerTrack is one track's position within a Score: which byte of the
// track's pattern-id list is current (OuterCursor), how far into that
// pattern's event data (InnerCursor), and how many ticks remain before the
// next event fires (Delay).
type PlayerTrack struct {
	OuterCursor uint16
	InnerCursor uint16
	Delay       uint16
}

// Player walks a Score's tracks tick by tick, decoding events and feeding
// them to a Runtime. A Player owns no Runtime; pass one to each Tick call,
// typically followed by that Runtime's own Tick to render the result.
type Player struct {
	score  *Score
	tracks [TrackCount]PlayerTrack
}

// NewPlayer creates a Player positioned at the start of score.
func NewPlayer(score *Score) *Player {
	return &Player{score: score}
}

// notesOffEvent is the implicit NotesOff event a LongDeltaNotesOff or
// ShortDeltaNotesOff opcode fires once its delay expires.
var notesOffEvent = [1]byte{OpNotesOff}

// Tick advances every track in the score by one tick, feeding any events
// that fire this tick to rt, and returns the number of tracks still
// playing. A return of 0 means every track has reached the end of its
// event data; the score has finished.
func (p *Player) Tick(rt *Runtime) uint8 {
	data := p.score.data
	patternCount := p.score.PatternCount()
	trackCount := p.score.TrackCount()
	sz := p.score.size()
	firstTrackStart := beU16(data[p.score.trackOffset(0):])

	var activeTracks uint8
	for trackIdx := 0; trackIdx < trackCount; trackIdx++ {
		pt := &p.tracks[trackIdx]

		trackOffIdx := p.score.trackOffset(trackIdx)
		trackStart := beU16(data[trackOffIdx:])
		var trackEnd uint16
		if trackIdx < trackCount-1 {
			trackEnd = beU16(data[trackOffIdx+2:])
		} else {
			trackEnd = sz
		}

		if pt.OuterCursor == 0 {
			pt.OuterCursor = trackStart
		}

		if pt.OuterCursor < trackEnd {
			activeTracks++
		}

		for pt.OuterCursor < trackEnd {
			patternID := int(data[pt.OuterCursor])
			ptnOffIdx := p.score.patternOffset(patternID)
			ptnStart := beU16(data[ptnOffIdx:])
			var ptnEnd uint16
			if patternID < patternCount-1 {
				ptnEnd = beU16(data[ptnOffIdx+2:])
			} else {
				ptnEnd = firstTrackStart
			}

			if pt.InnerCursor >= ptnEnd {
				pt.InnerCursor = 0
				pt.OuterCursor++
				continue
			}

			if pt.InnerCursor == 0 {
				pt.InnerCursor = ptnStart
			}

			// Delays are handled here rather than in Runtime.FeedEvent to
			// avoid needing a separate stop flag: a delay opcode blocks
			// this track until it counts down to zero.
			cmd := data[pt.InnerCursor]
			if cmd == OpLongDelta {
				if pt.Delay == 0 {
					pt.Delay = beU16(data[pt.InnerCursor+1:]) + OpShortDeltaCount + 1
				} else {
					pt.Delay--
					if pt.Delay == 0 {
						pt.InnerCursor += opLongDeltaSize
						continue
					}
				}
				break
			} else if cmd == OpLongDeltaNotesOff {
				if pt.Delay == 0 {
					pt.Delay = beU16(data[pt.InnerCursor+1:]) + OpShortDeltaNotesOffCount + 1
				} else {
					pt.Delay--
					if pt.Delay == 0 {
						pt.InnerCursor += opLongDeltaNotesOffSize
						rt.FeedEvent(trackIdx, notesOffEvent[:])
						continue
					}
				}
				break
			} else if cmd < OpShortDeltaStart+OpShortDeltaCount {
				if pt.Delay == 0 {
					pt.Delay = uint16(cmd-OpShortDeltaStart) + 1
				} else {
					pt.Delay--
					if pt.Delay == 0 {
						pt.InnerCursor += opShortDeltaSize
						continue
					}
				}
				break
			} else if cmd < OpShortDeltaNotesOffStart+OpShortDeltaNotesOffCount {
				if pt.Delay == 0 {
					pt.Delay = uint16(cmd-OpShortDeltaNotesOffStart) + 1
				} else {
					pt.Delay--
					if pt.Delay == 0 {
						pt.InnerCursor += opShortDeltaNotesOffSize
						rt.FeedEvent(trackIdx, notesOffEvent[:])
						continue
					}
				}
				break
			} else {
				size := rt.FeedEvent(trackIdx, data[pt.InnerCursor:])
				if size == 0 {
					// Reserved opcode: treat it as stream corruption and end
					// this track rather than spinning on a cursor that can
					// never advance.
					pt.OuterCursor = trackEnd
					break
				}
				pt.InnerCursor += uint16(size)
			}
		}
	}

	return activeTracks
}
