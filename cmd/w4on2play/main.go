// Command w4on2play plays a w4on2 score file through the default audio
// device, with a small live terminal UI for channel mute/solo and
// play/pause control.
package main

import (
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/chriskillpack/w4on2"
	"github.com/chriskillpack/w4on2/cmd/internal/config"
	"github.com/chriskillpack/w4on2/internal/synth"
)

var flagNoUI = pflag.Bool("no-ui", false, "disable the terminal UI")

func main() {
	log.SetFlags(0)
	log.SetPrefix("w4on2play: ")

	defaults := config.Default()
	flags := config.RegisterFlags(pflag.CommandLine, defaults)
	pflag.Parse()

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

	gate := newChannelGate()
	sy := synth.New(profile.SampleRate)
	rt := w4on2.NewRuntime(func(frequency, duration, volume, flags uint32) {
		ch := int(flags & 0x3)
		if gate.isMuted(ch) {
			volume = 0
		} else if profile.Boost != 0 {
			volume = boostVolume(volume, profile.Boost)
		}
		sy.Tone(frequency, duration, volume, flags)
	})
	player := w4on2.NewPlayer(score)

	ap := NewAudioPlayer(player, rt, sy, rv, profile.SampleRate, *flagNoUI, gate)
	defer ap.Stop()

	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}

// boostVolume scales the sustain/peak byte pair packed in volume by
// (100+percent)/100, clamping each byte at 0xFF.
func boostVolume(volume uint32, percent int) uint32 {
	lo := boostByte(volume&0xFF, percent)
	hi := boostByte((volume>>8)&0xFF, percent)
	return lo | hi<<8
}

func boostByte(b uint32, percent int) uint32 {
	v := b * uint32(100+percent) / 100
	if v > 0xFF {
		v = 0xFF
	}
	return v
}
