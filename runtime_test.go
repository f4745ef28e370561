package w4on2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toneCall struct {
	frequency, duration, volume, flags uint32
}

func newCapturingRuntime() (*Runtime, *[]toneCall) {
	calls := &[]toneCall{}
	rt := NewRuntime(func(frequency, duration, volume, flags uint32) {
		*calls = append(*calls, toneCall{frequency, duration, volume, flags})
	})
	return rt, calls
}

func noteOn(key uint8) []byte { return []byte{OpNoteOnStart + key} }

func TestNewRuntimeDefaults(t *testing.T) {
	rt, _ := newCapturingRuntime()
	for i, tr := range rt.Tracks {
		assert.Equal(t, uint8(velocityMax), tr.Velocity, "track %d", i)
		assert.Equal(t, uint8(volumeMax), tr.Volume, "track %d", i)
		assert.Equal(t, uint8(sustainMax), tr.S, "track %d", i)
	}
	for i, ch := range rt.Channels {
		assert.Equal(t, uint8(noTrack), ch.ActiveTrack, "channel %d", i)
		assert.Zero(t, ch.ActiveKeyCount, "channel %d", i)
	}
}

// A NoteOn with zero attack/decay should emit exactly one tone call per tick
// while held, using the Decay envelope slot (since from_vol != 0).
func TestNoteOnImmediateSustain(t *testing.T) {
	rt, calls := newCapturingRuntime()
	rt.FeedEvent(0, noteOn(60))

	rt.Tick()
	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, uint32(1<<16), c.duration)
	assert.Equal(t, uint32(0x40), c.flags&0x40)
}

// With a non-zero attack, the first tick starts silent (from_vol == 0) and
// uses the Attack envelope; every later tick starts from a non-zero level
// and uses the Decay envelope as a linear ramp.
func TestNoteOnAttackRamp(t *testing.T) {
	rt, calls := newCapturingRuntime()
	rt.FeedEvent(0, []byte{OpSetA, 4, 0})
	rt.FeedEvent(0, noteOn(60))

	for i := 0; i < 4; i++ {
		rt.Tick()
	}
	// Ticks 0..3 are mid-attack: from_vol is 0, 25, 50, 75, so only tick 0
	// starts from zero.
	require.Len(t, *calls, 4)
	assert.Equal(t, uint32(1<<24), (*calls)[0].duration, "expected attack envelope on the from-zero tick")
	for _, c := range (*calls)[1:] {
		assert.Equal(t, uint32(1<<16), c.duration, "expected decay envelope once from_vol is non-zero")
	}

	rt.Tick() // key_ticks == 4 == A: decay/sustain kicks in, from_vol != 0
	require.Len(t, *calls, 5)
	assert.Equal(t, uint32(1<<16), (*calls)[4].duration)
}

func TestNotesOffTriggersReleaseOnce(t *testing.T) {
	rt, calls := newCapturingRuntime()
	rt.FeedEvent(0, []byte{OpSetR, 10, 0})
	rt.FeedEvent(0, noteOn(60))
	rt.Tick()
	*calls = nil

	rt.FeedEvent(0, []byte{OpNotesOff})
	rt.Tick()
	require.Len(t, *calls, 1, "release should fire exactly once on the tick it starts")
	assert.Equal(t, uint32(10)<<8, (*calls)[0].duration)

	rt.Tick()
	assert.Len(t, *calls, 1, "release must not retrigger on subsequent ticks")
}

func TestNoteOverflowDropsOldestKey(t *testing.T) {
	rt, _ := newCapturingRuntime()
	for key := uint8(0); key < MaxNotes+3; key++ {
		rt.FeedEvent(0, noteOn(key))
	}
	ch := &rt.Channels[0]
	assert.Equal(t, uint8(MaxNotes), ch.ActiveKeyCount)
	// Keys 0,1,2 should have been pushed out; 3..10 remain.
	assert.Equal(t, uint8(3), ch.NoteKeys[0])
	assert.Equal(t, uint8(10), ch.NoteKeys[MaxNotes-1])
}

func TestChannelTrackSwitchResetsKeys(t *testing.T) {
	rt, _ := newCapturingRuntime()
	rt.FeedEvent(0, noteOn(60))
	rt.FeedEvent(0, noteOn(64))
	require.Equal(t, uint8(2), rt.Channels[0].ActiveKeyCount)

	// Track 1 defaults to channel 0 too (Flags == 0), so this note-on
	// should claim the channel away from track 0.
	rt.FeedEvent(1, noteOn(67))
	ch := &rt.Channels[0]
	assert.Equal(t, uint8(1), ch.ActiveTrack)
	assert.Equal(t, uint8(1), ch.ActiveKeyCount)
	assert.Equal(t, uint8(67), ch.NoteKeys[0])
}

func TestFirstTriggerTicksSaturates(t *testing.T) {
	rt, _ := newCapturingRuntime()
	rt.FeedEvent(0, noteOn(60))
	ch := &rt.Channels[0]
	ch.FirstTriggerTicks = 0xfffe
	for i := 0; i < 5; i++ {
		rt.Tick()
	}
	assert.Equal(t, uint16(0xffff), ch.FirstTriggerTicks)
}

func TestSetFlagsSelectsChannel(t *testing.T) {
	rt, calls := newCapturingRuntime()
	rt.FeedEvent(3, []byte{OpSetFlags, 0x02}) // channel 2
	rt.FeedEvent(3, noteOn(60))

	assert.Equal(t, uint8(3), rt.Channels[2].ActiveTrack)
	assert.Equal(t, uint8(noTrack), rt.Channels[0].ActiveTrack)

	rt.Tick()
	require.Len(t, *calls, 1)
}

func TestSetADSRAndIndividualSetters(t *testing.T) {
	rt, _ := newCapturingRuntime()
	rt.FeedEvent(0, []byte{OpSetADSR, 1, 2, 3, 4})
	tr := &rt.Tracks[0]
	assert.Equal(t, uint8(1), tr.A)
	assert.Equal(t, uint8(2), tr.D)
	assert.Equal(t, uint8(3), tr.S)
	assert.Equal(t, uint8(4), tr.R)

	rt.FeedEvent(0, []byte{OpSetA, 9})
	rt.FeedEvent(0, []byte{OpSetD, 10})
	rt.FeedEvent(0, []byte{OpSetS, 11})
	rt.FeedEvent(0, []byte{OpSetR, 12})
	assert.Equal(t, uint8(9), tr.A)
	assert.Equal(t, uint8(10), tr.D)
	assert.Equal(t, uint8(11), tr.S)
	assert.Equal(t, uint8(12), tr.R)
}

func TestSetPanPacksIntoFlags(t *testing.T) {
	rt, _ := newCapturingRuntime()
	rt.FeedEvent(0, []byte{OpSetFlags, 0x01})
	rt.FeedEvent(0, []byte{OpSetPanStart + 2})
	assert.Equal(t, uint8(0x01|(2<<4)), rt.Tracks[0].Flags)
}

func TestFeedEventReturnsOpcodeSize(t *testing.T) {
	rt, _ := newCapturingRuntime()
	assert.Equal(t, 3, rt.FeedEvent(0, []byte{OpLongDelta, 0, 1}))
	assert.Equal(t, 1, rt.FeedEvent(0, []byte{OpShortDeltaStart}))
	assert.Equal(t, 0, rt.FeedEvent(0, []byte{0xff}))
}

// swap16 must operate on the full ramp result, not a value pre-truncated to
// uint16, or a negative or >0xffff pitch word comes out wrong.
func TestSwap16WidePitchWords(t *testing.T) {
	// from_pitch = -256: as a 32-bit value this is 0xffffff00, so
	// (v>>8|v<<8)&0xffff == 0xffff. Truncating to uint16 first (0xff00)
	// would instead yield 0x00ff.
	assert.Equal(t, uint32(0xffff), swap16(uint32(int32(-256))))

	// A pitch sum beyond 0xffff (reachable via portamento + pitch-envelope +
	// vibrato stacking) must still swap correctly: bit 16 of 0x10100
	// contributes to the swapped result's high byte, which truncating to
	// uint16 before swapping would discard (yielding 0x0001 instead).
	assert.Equal(t, uint32(0x0101), swap16(uint32(int32(0x10100))))
}

// A negative from_pitch (e.g. from a pitch envelope with a negative offset
// active at tick 0) must byte-swap to the same word the original C produces
// by casting the full 32-bit value to uint32_t before swapping.
func TestNoteOnNegativePitchEnvelopeBitExactFrequency(t *testing.T) {
	rt, calls := newCapturingRuntime()
	rt.FeedEvent(0, []byte{OpSetPitchEnv, byte(int8(-1)), 10}) // PEOffset=-1 (<<8 == -256), PEDuration=10
	rt.FeedEvent(0, noteOn(0))

	rt.Tick()
	require.Len(t, *calls, 1)
	// At tick 0, from_pitch = 0<<8 (key) + (-1)<<8 (pitch env, ticks==0 so
	// ramp returns `from`) = -256. swap16(-256) == 0xffff in the low word.
	assert.Equal(t, uint32(0xffff), (*calls)[0].frequency&0xffff)
}

func TestArpeggioCyclesKeys(t *testing.T) {
	rt, _ := newCapturingRuntime()
	rt.FeedEvent(0, []byte{OpSetArpRate, 2})
	rt.FeedEvent(0, noteOn(60))
	rt.FeedEvent(0, noteOn(64))
	rt.FeedEvent(0, noteOn(67))

	ch := &rt.Channels[0]
	// key_i = (first_trigger_ticks / arp_rate) % active_key_count
	for tick, want := range []uint8{60, 60, 64, 64, 67, 67} {
		keyIdx := (ch.FirstTriggerTicks / 2) % uint16(ch.ActiveKeyCount)
		assert.Equal(t, want, ch.NoteKeys[keyIdx], "tick %d", tick)
		rt.Tick()
	}
}
