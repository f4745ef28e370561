package w4on2

// Runtime limits, per the wire format and the WASM-4 tone ABI.
const (
	TrackCount   = 16
	ChannelCount = 4
	MaxNotes     = 8
	MaxPatterns  = 256

	wasm4VolumeMax = 100

	volumeMax   = 255
	sustainMax  = 255
	velocityMax = 127
)

// noTrack is the sentinel Channel.ActiveTrack value meaning "no track owns
// this channel".
const noTrack = 0xff

// Track is an instrument preset plus the live modulation parameters a score
// can update via SET_* events. Sixteen exist; a track's Flags bits 0-1 pick
// which of the four Channels it drives.
type Track struct {
	Flags    uint8 // channel (bits 0-1), note mode (bits 2-3), pan (bits 4-5)
	Volume   uint8 // 0..255
	Velocity uint8 // 0..127

	A, D, S, R uint8 // attack/decay ticks, sustain amplitude, release ticks

	PEOffset   int8  // pitch envelope start offset, semitones
	PEDuration uint8 // ticks to ramp the pitch envelope to zero

	ArpRate    uint8 // ticks per arpeggio step; 0 disables arpeggio
	Portamento uint8 // ticks to glide from previous key to new key

	VibSpeed uint8 // vibrato LFO rate
	VibDepth uint8 // vibrato amplitude, 1/4-semitone units
}

// defaultTrack returns a Track's at-rest preset values.
func defaultTrack() Track {
	return Track{
		Velocity: velocityMax,
		Volume:   volumeMax,
		S:        sustainMax,
	}
}

// Channel is the live state of one WASM-4 oscillator slot. At most one track
// drives a channel at a time.
type Channel struct {
	ActiveTrack    uint8 // 0..15, or noTrack
	ActiveKeyCount uint8 // 0..MaxNotes; 0 means "in release or silent"

	// NoteKeys is a MIDI-key stack: position 0 is the oldest held key,
	// position ActiveKeyCount-1 the newest. Once all keys release,
	// NoteKeys[0] holds the last-released key for the release tail.
	NoteKeys [MaxNotes]uint8

	// FirstTriggerTicks counts ticks since the current key set began (the
	// 0-to->=1-keys transition), or ticks spent in the release phase.
	// Saturates at 0xffff.
	FirstTriggerTicks uint16

	// LastTriggerTicks counts ticks since the most recently added key.
	// Saturates at 0xff.
	LastTriggerTicks uint8
}

func defaultChannel() Channel {
	return Channel{ActiveTrack: noTrack}
}
