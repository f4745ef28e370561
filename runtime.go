package w4on2

// ToneFunc matches the WASM-4 console's tone(frequency, duration, volume,
// flags) import. frequency packs a from/to pitch slope, duration an ADSR
// envelope, volume a sustain/peak pair, and flags the channel/duty/pan
// selection; see Runtime.Tick for how Runtime builds these.
type ToneFunc func(frequency, duration, volume, flags uint32)

// Runtime holds the sixteen Tracks and four Channels a score drives, and
// emits WASM-4 tone calls one tick at a time. It does not know about scores
// or patterns; Player feeds it events decoded from those.
type Runtime struct {
	Tracks   [TrackCount]Track
	Channels [ChannelCount]Channel

	tone ToneFunc
}

// NewRuntime creates a Runtime with all tracks and channels at their
// power-on defaults, emitting tone calls through tone.
func NewRuntime(tone ToneFunc) *Runtime {
	rt := &Runtime{tone: tone}
	for i := range rt.Tracks {
		rt.Tracks[i] = defaultTrack()
	}
	for i := range rt.Channels {
		rt.Channels[i] = defaultChannel()
	}
	return rt
}

// FeedEvent applies the event at data[0] to the track at trackIdx, mutating
// the track or its channel as appropriate, and returns the event's size in
// bytes. Most callers should use Player instead of calling this directly;
// it exists for tests and tools that want to drive a Runtime by hand.
//
// The branch order mirrors the original w4on2 runtime's dispatch and must
// not be reordered.
func (rt *Runtime) FeedEvent(trackIdx int, data []byte) int {
	t := &rt.Tracks[trackIdx]
	ch := &rt.Channels[t.Flags&0x3]

	cmd := data[0]
	switch {
	case cmd == OpLongDelta:
		return opLongDeltaSize
	case cmd == OpLongDeltaNotesOff:
		return opLongDeltaNotesOffSize
	case cmd < OpShortDeltaStart+OpShortDeltaCount:
		return opShortDeltaSize
	case cmd < OpShortDeltaNotesOffStart+OpShortDeltaNotesOffCount:
		return opShortDeltaNotesOffSize
	case cmd < OpNoteOnStart+OpNoteOnCount:
		// Channel track switch: a new track claims the channel outright.
		if trackIdx != int(ch.ActiveTrack) {
			ch.ActiveTrack = uint8(trackIdx)
			ch.ActiveKeyCount = 0
		}
		// Note overflow: drop the oldest key to make room.
		if ch.ActiveKeyCount >= MaxNotes {
			copy(ch.NoteKeys[:MaxNotes-1], ch.NoteKeys[1:])
			ch.ActiveKeyCount--
		}
		if ch.ActiveKeyCount == 0 {
			ch.FirstTriggerTicks = 0
		}
		ch.NoteKeys[ch.ActiveKeyCount] = cmd - OpNoteOnStart
		ch.ActiveKeyCount++
		ch.LastTriggerTicks = 0
		return opNoteOnSize
	case cmd == OpNotesOff:
		if ch.ActiveKeyCount > 0 {
			var key uint8
			if t.ArpRate > 0 {
				key = ch.NoteKeys[(ch.FirstTriggerTicks/uint16(t.ArpRate))%uint16(ch.ActiveKeyCount)]
			} else {
				key = ch.NoteKeys[ch.ActiveKeyCount-1]
			}
			// Last released note is kept in slot 0 for the release tail.
			ch.NoteKeys[0] = key
			ch.ActiveKeyCount = 0
			ch.FirstTriggerTicks = 0
		}
		return opNotesOffSize
	case cmd == OpSetFlags:
		t.Flags = data[1]
		return opSetFlagsSize
	case cmd == OpSetVolume:
		t.Volume = data[1]
		return opSetVolumeSize
	case cmd < OpSetPanStart+OpSetPanCount:
		t.Flags = (t.Flags &^ 0x30) | ((cmd - OpSetPanStart) << 4)
		return opSetPanSize
	case cmd == OpSetVelocity:
		t.Velocity = data[1]
		return opSetVelocitySize
	case cmd == OpSetADSR:
		t.A, t.D, t.S, t.R = data[1], data[2], data[3], data[4]
		return opSetADSRSize
	case cmd == OpSetA:
		t.A = data[1]
		return opSetASize
	case cmd == OpSetD:
		t.D = data[1]
		return opSetDSize
	case cmd == OpSetS:
		t.S = data[1]
		return opSetSSize
	case cmd == OpSetR:
		t.R = data[1]
		return opSetRSize
	case cmd == OpSetPitchEnv:
		t.PEOffset = int8(data[1])
		t.PEDuration = data[2]
		return opSetPitchEnvSize
	case cmd == OpSetArpRate:
		t.ArpRate = data[1]
		return opSetArpRateSize
	case cmd == OpSetPortamento:
		t.Portamento = data[1]
		return opSetPortamentoSize
	case cmd == OpSetVibrato:
		t.VibSpeed = data[1]
		t.VibDepth = data[2]
		return opSetVibratoSize
	default:
		return 0
	}
}

// Tick advances every channel by one tick, emitting at most one tone call
// per channel. Call this once per WASM-4 update, after feeding it that
// tick's events (see Player.Tick).
func (rt *Runtime) Tick() {
	for i := range rt.Channels {
		ch := &rt.Channels[i]
		if int(ch.ActiveTrack) >= TrackCount {
			continue
		}
		track := &rt.Tracks[ch.ActiveTrack]

		velUndiv := uint32(track.Volume) * uint32(track.Velocity)
		peakAmp := uint8(wasm4VolumeMax * velUndiv / (volumeMax * velocityMax))
		susAmp := uint8(wasm4VolumeMax * velUndiv * uint32(track.S) / (volumeMax * velocityMax * sustainMax))

		if ch.ActiveKeyCount > 0 {
			// Current and previous key: last in NoteKeys for plain notes,
			// arp_rate-selected for arpeggios.
			var keyIdx uint8
			if track.ArpRate > 0 {
				keyIdx = uint8((ch.FirstTriggerTicks / uint16(track.ArpRate)) % uint16(ch.ActiveKeyCount))
			} else {
				keyIdx = ch.ActiveKeyCount - 1
			}
			key := ch.NoteKeys[keyIdx]
			prevKey := ch.NoteKeys[(keyIdx+ch.ActiveKeyCount-1)%ch.ActiveKeyCount]

			// ADS(R) resets at the first note, or with each arpeggio step.
			var keyTicks uint16
			if track.ArpRate > 0 && ch.ActiveKeyCount >= 2 {
				keyTicks = ch.FirstTriggerTicks % uint16(track.ArpRate)
			} else {
				keyTicks = ch.FirstTriggerTicks
			}

			var fromVol, toVol int32
			if keyTicks < uint16(track.A) {
				ramp2add(&fromVol, &toVol, int32(keyTicks), int32(track.A), 0, int32(peakAmp))
			} else {
				ramp2add(&fromVol, &toVol, int32(keyTicks)-int32(track.A), int32(track.D), int32(peakAmp), int32(susAmp))
			}

			// Pitch, scaled up by 256 from MIDI notes to allow bends.
			var fromPitch, toPitch int32

			// Portamento: glide from last to newest note, or between
			// successive arpeggio notes.
			var portaTicks uint16
			if track.ArpRate > 0 {
				portaTicks = keyTicks
			} else {
				portaTicks = uint16(ch.LastTriggerTicks)
			}
			ramp2add(&fromPitch, &toPitch, int32(portaTicks), int32(track.Portamento), int32(prevKey)<<8, int32(key)<<8)

			ramp2add(&fromPitch, &toPitch, int32(keyTicks), int32(track.PEDuration), int32(track.PEOffset)<<8, 0)

			fromPitch += triangle((0x3fff+uint32(portaTicks)*(uint32(track.VibSpeed)<<6))&0xffff, int32(track.VibDepth)<<2)
			toPitch += triangle((0x3fff+uint32(portaTicks+1)*(uint32(track.VibSpeed)<<6))&0xffff, int32(track.VibDepth)<<2)

			freq := swap16(uint32(fromPitch)) | swap16(uint32(toPitch))<<16

			// Using Decay is the most flexible way to play any linear
			// envelope since peak and sustain are absolute in WASM-4.
			// WASM-4 defaults peak volume to 100 when passed 0, so Attack
			// is used specifically for the from-zero case.
			switch {
			case fromVol != 0:
				rt.tone(freq, 1<<16, uint32(toVol)|uint32(fromVol)<<8, uint32(track.Flags)|0x40)
			case toVol != 0:
				rt.tone(freq, 1<<24, uint32(toVol)|uint32(toVol)<<8, uint32(track.Flags)|0x40)
			}
		} else {
			// Release triggers once; WASM-4 handles the ramp itself.
			if ch.FirstTriggerTicks == 0 {
				key := ch.NoteKeys[0] // last released note lives here
				rt.tone(uint32(key), uint32(track.R)<<8, uint32(susAmp), uint32(track.Flags)|0x40)
			}
		}

		if ch.FirstTriggerTicks < 0xffff {
			ch.FirstTriggerTicks++
		}
		if ch.LastTriggerTicks < 0xff {
			ch.LastTriggerTicks++
		}
	}
}

func ramp(ticks, duration, from, to int32) int32 {
	switch {
	case duration == 0 || ticks >= duration:
		return to
	case ticks <= 0:
		return from
	default:
		return from + (to-from)*ticks/duration
	}
}

// ramp2add adds ramp(ticks) and ramp(ticks+1) into out1 and out2. Runtime.Tick
// uses this to get a linear envelope's value at the start and end of the
// current tick in one call, since WASM-4's tone only takes from/to values.
func ramp2add(out1, out2 *int32, ticks, duration, from, to int32) {
	*out1 += ramp(ticks, duration, from, to)
	*out2 += ramp(ticks+1, duration, from, to)
}

// triangle is the vibrato LFO: phase is 0..0xffff for one full cycle.
func triangle(phase uint32, peak int32) int32 {
	if phase < 0x7fff {
		return 2*peak*int32(phase)/0x7fff - peak
	}
	return 2*peak*int32(0xffff-phase)/0x7fff - peak
}

// swap16 byte-swaps the low 16 bits of v into a WASM-4 pitch word. It takes
// the full 32-bit ramp result (not a pre-truncated uint16) because v can be
// negative or exceed 0xffff — the shift-and-mask must happen on the wide
// value, exactly as the original C's (v>>8 | v<<8) & 0xffff does, or bits
// 16..23, which the wide shift ORs into the result's high byte, are lost.
func swap16(v uint32) uint32 {
	return (v>>8 | v<<8) & 0xffff
}
