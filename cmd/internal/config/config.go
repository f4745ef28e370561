// Package config loads playback settings for the w4on2 command line tools:
// a YAML profile on disk, overridable by command-line flags.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/chriskillpack/w4on2/internal/reverb"
)

// Profile is the on-disk (and flag-overridable) playback configuration.
type Profile struct {
	SampleRate int    `yaml:"sample_rate"`
	Reverb     string `yaml:"reverb"`
	Boost      int    `yaml:"boost"`
	StartOrder int    `yaml:"start_order"`
}

// Default returns a Profile with the playback tools' built-in defaults.
func Default() Profile {
	return Profile{
		SampleRate: 44100,
		Reverb:     "none",
		Boost:      0,
		StartOrder: 0,
	}
}

// Load reads a YAML profile from path and merges it over Default. A missing
// file is not an error: Load returns the defaults unchanged.
func Load(path string) (Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return p, nil
}

// Flags registers pflag command-line overrides for every Profile field
// onto fs, returning pointers Apply can read back after fs.Parse.
type Flags struct {
	ConfigPath *string
	SampleRate *int
	Reverb     *string
	Boost      *int
	StartOrder *int
}

// RegisterFlags adds the profile's overridable fields to fs.
func RegisterFlags(fs *pflag.FlagSet, defaults Profile) *Flags {
	return &Flags{
		ConfigPath: fs.StringP("config", "c", "", "path to a YAML playback profile"),
		SampleRate: fs.Int("hz", defaults.SampleRate, "output sample rate"),
		Reverb:     fs.StringP("reverb", "r", defaults.Reverb, "reverb preset: none, room, hall, cathedral"),
		Boost:      fs.Int("boost", defaults.Boost, "volume boost, in percent (applied by w4on2play only)"),
		StartOrder: fs.Int("start-order", defaults.StartOrder, "pattern index to start playback from (stored in the profile; neither w4on2play nor w4on2wav applies it)"),
	}
}

// Apply overlays any flags the user actually set on fs onto p.
func (f *Flags) Apply(fs *pflag.FlagSet, p Profile) Profile {
	if fs.Changed("hz") {
		p.SampleRate = *f.SampleRate
	}
	if fs.Changed("reverb") {
		p.Reverb = *f.Reverb
	}
	if fs.Changed("boost") {
		p.Boost = *f.Boost
	}
	if fs.Changed("start-order") {
		p.StartOrder = *f.StartOrder
	}
	return p
}

// reverbBufferFrames sizes a preset's bounded output buffer; it does not
// affect the reverb's perceived length, only how far InputSamples can get
// ahead of GetAudio.
const reverbBufferFrames = 1 << 14

// presets maps a Profile.Reverb name to Freeverb-style parameters. "none"
// is handled separately since it needs no comb/allpass banks at all.
var presets = map[string]reverb.Params{
	"room":      {Decay: 0.45, Damping: 0.5, Mix: 0.2},
	"hall":      {Decay: 0.65, Damping: 0.4, Mix: 0.35},
	"cathedral": {Decay: 0.85, Damping: 0.3, Mix: 0.5},
}

// ReverbFromProfile builds the Reverber a Profile's Reverb preset name
// describes, for sampleRate output audio.
func ReverbFromProfile(p Profile, sampleRate int) (reverb.Reverber, error) {
	if p.Reverb == "" || p.Reverb == "none" {
		return reverb.NewPassThrough(reverbBufferFrames), nil
	}
	params, ok := presets[p.Reverb]
	if !ok {
		return nil, fmt.Errorf("config: unknown reverb preset %q", p.Reverb)
	}
	return reverb.NewStereoReverb(reverbBufferFrames, params.Decay, params.Damping, params.Mix, sampleRate), nil
}
