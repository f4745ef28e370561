// Command w4on2wav renders a w4on2 score file to a 16-bit stereo WAVE
// file, offline and as fast as the host can compute it.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/chriskillpack/w4on2"
	"github.com/chriskillpack/w4on2/cmd/internal/config"
	"github.com/chriskillpack/w4on2/internal/reverb"
	"github.com/chriskillpack/w4on2/internal/synth"
	"github.com/chriskillpack/w4on2/wav"
)

var flagOut = pflag.StringP("out", "o", "", "output WAVE file (required)")

// drainTicks is how many tick's worth of silence to keep rendering after
// the score finishes, to let a reverb preset's tail ring out in the file.
const drainTicks = 120

func main() {
	log.SetFlags(0)
	log.SetPrefix("w4on2wav: ")

	defaults := config.Default()
	flags := config.RegisterFlags(pflag.CommandLine, defaults)
	pflag.Parse()

	if *flagOut == "" {
		log.Fatal("missing --out FILE")
	}
	if pflag.NArg() == 0 {
		log.Fatal("missing score filename")
	}

	profile, err := config.Load(*flags.ConfigPath)
	if err != nil {
		log.Fatal(err)
	}
	profile = flags.Apply(pflag.CommandLine, profile)

	data, err := os.ReadFile(pflag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	score, err := w4on2.ParseScore(data)
	if err != nil {
		log.Fatal(err)
	}

	rv, err := config.ReverbFromProfile(profile, profile.SampleRate)
	if err != nil {
		log.Fatal(err)
	}

	sy := synth.New(profile.SampleRate)
	rt := w4on2.NewRuntime(sy.Tone)
	player := w4on2.NewPlayer(score)

	wavF, err := os.Create(*flagOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, profile.SampleRate)
	if err != nil {
		log.Fatal(err)
	}

	samplesPerTick := (profile.SampleRate / 60) * 2
	tickBuf := make([]int16, samplesPerTick)
	out := make([]int16, samplesPerTick)

	ticks := 0
	silentTicks := 0
	for silentTicks < drainTicks {
		active := uint8(0)
		if silentTicks == 0 {
			active = player.Tick(rt)
			rt.Tick()
			sy.Render(tickBuf, samplesPerTick/2)
		} else {
			clear(tickBuf)
		}

		if active == 0 {
			silentTicks++
		}
		ticks++

		pushed := 0
		for pushed < len(tickBuf) {
			pushed += rv.InputSamples(tickBuf[pushed:])
			if pushed < len(tickBuf) {
				drainReverb(rv, wavW, out)
			}
		}
		drainReverb(rv, wavW, out)
	}

	total, err := wavW.Finish()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s: %d ticks, %d bytes\n", *flagOut, ticks, total)
}

// drainReverb writes whatever audio the reverb has ready into wavW, using
// scratch as an intermediate buffer.
func drainReverb(rv reverb.Reverber, wavW *wav.Writer, scratch []int16) {
	for {
		n := rv.GetAudio(scratch)
		if n == 0 {
			return
		}
		if err := wavW.WriteFrame(scratch[:n]); err != nil {
			log.Fatal(err)
		}
		if n < len(scratch) {
			return
		}
	}
}
