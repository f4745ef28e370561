//go:build arm64

package synth

// Synth renders the four WASM-4 oscillators to interleaved stereo PCM. See
// synth.go for the field documentation; this file only exists to give the
// arm64 build its own Render dispatch point, same as the rest of this
// package's !arm64/arm64 split.
type Synth struct {
	sampleRate int
	oscs       [4]oscillator
}

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

func (s *Synth) Render(out []int16, numFrames int) {
	// C.RenderMix_NEON(...) would batch waveform generation across frames
	// using NEON; not yet written, so fall back to the scalar path.
	renderMixScalar(s.oscs[:], out, numFrames, s.sampleRate)
}
