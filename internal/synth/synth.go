//go:build !arm64

package synth

// Synth renders the four WASM-4 oscillators to interleaved stereo PCM. It
// implements the same signature WASM-4's host environment gives the
// tone() import, so a Runtime can call Synth.Tone directly as its
// w4on2.ToneFunc.
type Synth struct {
	sampleRate int
	oscs       [4]oscillator
}

// New creates a Synth rendering at sampleRate, with all four oscillators
// silent.
func New(sampleRate int) *Synth {
	return &Synth{
		sampleRate: sampleRate,
		oscs: [4]oscillator{
			newOscillator(kindPulse1),
			newOscillator(kindPulse2),
			newOscillator(kindTriangle),
			newOscillator(kindNoise),
		},
	}
}

// Tone decodes a WASM-4 tone() call and restarts the targeted channel's
// envelope. Safe to call from the same goroutine that later calls Render;
// Synth does no internal locking.
func (s *Synth) Tone(frequency, duration, volume, flags uint32) {
	ch := flags & 0x3
	duty := uint8((flags >> 2) & 0x3)
	pan := uint8((flags >> 4) & 0x3)

	freq1 := frequency & 0xffff
	freq2 := (frequency >> 16) & 0xffff

	attack := (duration >> 24) & 0xff
	decay := (duration >> 16) & 0xff
	sustainFrames := (duration >> 8) & 0xff
	release := duration & 0xff

	sustain := uint8(volume & 0xff)
	peak := uint8((volume >> 8) & 0xff)

	s.oscs[ch].tone(freq1, freq2, duty, pan, attack, decay, sustainFrames, release, peak, sustain, s.sampleRate)
}

// Render advances every oscillator by numFrames samples and writes
// interleaved stereo int16 PCM into out, which must hold at least
// 2*numFrames entries.
func (s *Synth) Render(out []int16, numFrames int) {
	renderMixScalar(s.oscs[:], out, numFrames, s.sampleRate)
}
