package synth

import "math"

// renderMixScalar is the portable, non-SIMD inner rendering loop: one pass
// over all four oscillators per output frame. The ARM64 build calls this
// same function today; a NEON path would batch the per-oscillator waveform
// generation across frames instead.
func renderMixScalar(oscs []oscillator, out []int16, numFrames, sampleRate int) {
	for i := 0; i < numFrames; i++ {
		var left, right int32

		for ch := range oscs {
			o := &oscs[ch]
			if o.done() {
				continue
			}

			amp := o.amplitudeAt(o.pos)
			freq := o.freqAt(o.pos)

			var sample float64
			switch o.kind {
			case kindPulse1, kindPulse2:
				sample = pulseSample(o.phase, dutyTable[o.duty])
			case kindTriangle:
				sample = triangleSample(o.phase)
			case kindNoise:
				sample = o.noiseHeld
			}

			scaled := int32(sample * float64(amp) / wasm4VolumeMax * fullScale)

			switch o.pan {
			case 1:
				left += scaled
			case 2:
				right += scaled
			default:
				left += scaled / 2
				right += scaled / 2
			}

			o.phase += freq / float64(sampleRate)
			if o.phase >= 1 {
				o.phase -= math.Floor(o.phase)
				if o.kind == kindNoise {
					o.noiseHeld = noiseClock(o)
				}
			}
			o.pos++
		}

		out[i*2] = clampInt16(left)
		out[i*2+1] = clampInt16(right)
	}
}

// wasm4VolumeMax mirrors the core engine's tone() volume scale (0..100).
const wasm4VolumeMax = 100

// fullScale keeps headroom for all four channels to sum before clipping.
const fullScale = 8000

func pulseSample(phase, duty float64) float64 {
	if phase < duty {
		return 1
	}
	return -1
}

// triangleSample maps a 0..1 phase to a symmetric triangle wave peaking at
// phase 0.5, with its minimum at phase 0 and 1.
func triangleSample(phase float64) float64 {
	if phase < 0.5 {
		return -1 + 4*phase
	}
	return 3 - 4*phase
}

// noiseClock advances a 15-bit Fibonacci-style LFSR one step and returns
// its new output level. WASM-4's noise channel reseeds from bits 0 and 1.
func noiseClock(o *oscillator) float64 {
	bit := (o.lfsr ^ (o.lfsr >> 1)) & 1
	o.lfsr >>= 1
	if bit != 0 {
		o.lfsr |= 0x4000
	}
	if o.lfsr&1 != 0 {
		return 1
	}
	return -1
}

func clampInt16(v int32) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
