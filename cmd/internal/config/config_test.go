package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_rate: 48000\nreverb: hall\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 48000, p.SampleRate)
	assert.Equal(t, "hall", p.Reverb)
	assert.Equal(t, Default().Boost, p.Boost, "fields absent from the file keep their default")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFlagsApplyOnlyChangedFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	defaults := Default()
	flags := RegisterFlags(fs, defaults)

	require.NoError(t, fs.Parse([]string{"--reverb=cathedral"}))

	merged := flags.Apply(fs, defaults)
	assert.Equal(t, "cathedral", merged.Reverb)
	assert.Equal(t, defaults.SampleRate, merged.SampleRate, "unset flags must not override the profile")
}

func TestReverbFromProfileNone(t *testing.T) {
	p := Default()
	p.Reverb = "none"
	r, err := ReverbFromProfile(p, 44100)
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestReverbFromProfileUnknownPreset(t *testing.T) {
	p := Default()
	p.Reverb = "not-a-real-preset"
	_, err := ReverbFromProfile(p, 44100)
	assert.Error(t, err)
}

func TestReverbFromProfileKnownPresets(t *testing.T) {
	for name := range presets {
		p := Default()
		p.Reverb = name
		_, err := ReverbFromProfile(p, 44100)
		assert.NoError(t, err, "preset %q should build a reverb", name)
	}
}
