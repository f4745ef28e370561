// Package synth renders the WASM-4 console's four-oscillator tone sink to
// PCM audio, for tools that play or record a w4on2 score rather than run it
// on an actual WASM-4 host.
package synth

// Channel kinds, matching WASM-4's flags&0x3 channel selector.
const (
	kindPulse1 = iota
	kindPulse2
	kindTriangle
	kindNoise
)

// ticksPerSecond is the rate at which WASM-4 calls update() and therefore
// the unit ADSR frame counts in a tone() duration are expressed in.
const ticksPerSecond = 60

// dutyTable holds the four pulse duty cycles WASM-4's flags>>2&0x3 selects,
// as a fraction of the waveform period spent high.
var dutyTable = [4]float64{0.125, 0.25, 0.5, 0.75}

// oscillator is one WASM-4 channel's playback state, advanced sample by
// sample across Render calls, independent of how often Tone is invoked.
type oscillator struct {
	kind int
	duty uint8
	pan  uint8 // 0 center, 1 left only, 2 right only

	freq1, freq2 uint32 // Hz, interpolated linearly across the envelope
	peak, sustn  uint8  // 0..100, WASM-4 volume scale

	attack, decay, sustainLen, release uint32 // in samples
	totalLen                           uint32 // sum of the above
	pos                                uint32 // samples elapsed since the last Tone call

	phase     float64 // 0..1 waveform phase accumulator, kept continuous across calls
	lfsr      uint16  // noise linear feedback shift register
	noiseHeld float64 // noise channel's current output, held between LFSR clocks
}

func newOscillator(kind int) oscillator {
	return oscillator{kind: kind, lfsr: 0x0001}
}

// tone applies a WASM-4 tone() call's decoded parameters, restarting this
// oscillator's envelope. Every call replaces the frequency sweep, duty,
// pan, volumes and envelope; only the waveform phase and noise state carry
// over, since a score re-issues tone() every tick with only the next
// tick's envelope segment.
func (o *oscillator) tone(freq1, freq2 uint32, duty, pan uint8, attack, decay, sustainFrames, release uint32, peak, sustain uint8, sampleRate int) {
	o.duty = duty
	o.pan = pan
	o.freq1 = freq1
	o.freq2 = freq2
	o.peak = peak
	o.sustn = sustain

	framesToSamples := func(f uint32) uint32 { return f * uint32(sampleRate) / ticksPerSecond }
	o.attack = framesToSamples(attack)
	o.decay = framesToSamples(decay)
	o.sustainLen = framesToSamples(sustainFrames)
	o.release = framesToSamples(release)
	o.totalLen = o.attack + o.decay + o.sustainLen + o.release
	o.pos = 0
}

// amplitudeAt returns this oscillator's 0..100 WASM-4 volume at sample
// offset pos into its current envelope.
func (o *oscillator) amplitudeAt(pos uint32) uint8 {
	switch {
	case pos >= o.totalLen:
		return 0
	case pos < o.attack:
		if o.attack == 0 {
			return o.peak
		}
		return uint8(uint32(o.peak) * pos / o.attack)
	case pos < o.attack+o.decay:
		if o.decay == 0 {
			return o.peak
		}
		dt := pos - o.attack
		return uint8(uint32(o.peak) - (uint32(o.peak)-uint32(o.sustn))*dt/o.decay)
	case pos < o.attack+o.decay+o.sustainLen:
		return o.sustn
	default:
		if o.release == 0 {
			return 0
		}
		dt := pos - (o.attack + o.decay + o.sustainLen)
		return uint8(uint32(o.sustn) - uint32(o.sustn)*dt/o.release)
	}
}

// freqAt linearly interpolates the oscillator's frequency slope across its
// current envelope at sample offset pos.
func (o *oscillator) freqAt(pos uint32) float64 {
	if o.totalLen == 0 {
		return float64(o.freq1)
	}
	if pos >= o.totalLen {
		pos = o.totalLen
	}
	t := float64(pos) / float64(o.totalLen)
	return float64(o.freq1) + (float64(o.freq2)-float64(o.freq1))*t
}

// done reports whether this oscillator has finished its current envelope
// and is contributing silence.
func (o *oscillator) done() bool { return o.pos >= o.totalLen }
