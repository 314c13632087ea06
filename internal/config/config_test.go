package config

import (
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"GMSAMPLES_SOUNDFONT", "GMSAMPLES_OUT", "GMSAMPLES_NAME",
	"GMSAMPLES_PROGRAMS", "GMSAMPLES_PERCUSSION", "GMSAMPLES_VELOCITIES",
	"GMSAMPLES_DURATION_MS", "GMSAMPLES_RELEASE_MS", "GMSAMPLES_WORKERS",
	"GMSAMPLES_SYNTH", "GMSAMPLES_ENCODER", "GMSAMPLES_QUALITY",
	"GMSAMPLES_SAMPLE_RATE", "GMSAMPLES_JOB_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	assert.Equal(t, "FluidR3_GM.sf2", cfg.SoundFont)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "FluidR3_GM", cfg.Name)
	require.Len(t, cfg.Programs, 128)
	assert.Equal(t, 0, cfg.Programs[0])
	assert.Equal(t, 127, cfg.Programs[127])
	assert.True(t, cfg.Percussion)
	assert.Equal(t, []int{85}, cfg.Velocities)
	assert.Equal(t, 3*time.Second, cfg.Duration)
	assert.Equal(t, time.Second, cfg.Release)
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, "fluidsynth", cfg.Synth)
	assert.Equal(t, "lame", cfg.Encoder)
	assert.Equal(t, 2, cfg.Quality)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, time.Duration(0), cfg.JobTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GMSAMPLES_SOUNDFONT", "/banks/GeneralUser.sf2")
	t.Setenv("GMSAMPLES_OUT", "/srv/samples")
	t.Setenv("GMSAMPLES_NAME", "GeneralUser")
	t.Setenv("GMSAMPLES_PROGRAMS", "0,24-26")
	t.Setenv("GMSAMPLES_PERCUSSION", "false")
	t.Setenv("GMSAMPLES_VELOCITIES", "40,85,120")
	t.Setenv("GMSAMPLES_DURATION_MS", "1500")
	t.Setenv("GMSAMPLES_RELEASE_MS", "250")
	t.Setenv("GMSAMPLES_WORKERS", "4")
	t.Setenv("GMSAMPLES_SYNTH", "meltysynth")
	t.Setenv("GMSAMPLES_ENCODER", "opus")
	t.Setenv("GMSAMPLES_QUALITY", "5")
	t.Setenv("GMSAMPLES_SAMPLE_RATE", "48000")
	t.Setenv("GMSAMPLES_JOB_TIMEOUT", "30s")

	cfg := Load()

	assert.Equal(t, "/banks/GeneralUser.sf2", cfg.SoundFont)
	assert.Equal(t, "/srv/samples", cfg.OutputDir)
	assert.Equal(t, "GeneralUser", cfg.Name)
	assert.Equal(t, []int{0, 24, 25, 26}, cfg.Programs)
	assert.False(t, cfg.Percussion)
	assert.Equal(t, []int{40, 85, 120}, cfg.Velocities)
	assert.Equal(t, 1500*time.Millisecond, cfg.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.Release)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "meltysynth", cfg.Synth)
	assert.Equal(t, "opus", cfg.Encoder)
	assert.Equal(t, 5, cfg.Quality)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 30*time.Second, cfg.JobTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestEnvInvalidKeepsDefaultsAndFailsValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("GMSAMPLES_WORKERS", "not-a-number")
	t.Setenv("GMSAMPLES_PERCUSSION", "maybe")
	t.Setenv("GMSAMPLES_VELOCITIES", "loud")
	t.Setenv("GMSAMPLES_JOB_TIMEOUT", "soon")
	t.Setenv("GMSAMPLES_DURATION_MS", "3s")
	cfg := Load()
	assert.Equal(t, 10, cfg.Workers)
	assert.True(t, cfg.Percussion)
	assert.Equal(t, []int{85}, cfg.Velocities)
	assert.Equal(t, time.Duration(0), cfg.JobTimeout)
	assert.Equal(t, 3*time.Second, cfg.Duration)

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	for _, key := range []string{"GMSAMPLES_WORKERS", "GMSAMPLES_PERCUSSION", "GMSAMPLES_VELOCITIES", "GMSAMPLES_JOB_TIMEOUT", "GMSAMPLES_DURATION_MS"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestEnvBadProgramList(t *testing.T) {
	clearEnv(t)
	t.Setenv("GMSAMPLES_PROGRAMS", "0,x")
	cfg := Load()
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), `GMSAMPLES_PROGRAMS="0,x"`)
}

func TestEnvEmptyProgramsRendersPercussionOnly(t *testing.T) {
	for _, v := range []string{"", "none"} {
		clearEnv(t)
		t.Setenv("GMSAMPLES_PROGRAMS", v)
		cfg := Load()
		assert.Empty(t, cfg.Programs, "GMSAMPLES_PROGRAMS=%q", v)
		assert.True(t, cfg.Percussion)
		assert.NoError(t, cfg.Validate())
	}
}

func TestParseIntList(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"", nil},
		{"none", nil},
		{"85", []int{85}},
		{"0-3", []int{0, 1, 2, 3}},
		{"40, 0 ,5-6", []int{40, 0, 5, 6}},
		{"7-7", []int{7}},
	}
	for _, tt := range tests {
		got, err := ParseIntList(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"a", "1,,2", "5-2", "1-x", "-3"} {
		_, err := ParseIntList(bad)
		assert.True(t, errors.Is(err, ErrInvalid), "ParseIntList(%q) err = %v", bad, err)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.Workers = 0
	cfg.Velocities = nil
	cfg.Synth = "timidity"
	cfg.Duration = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	for _, want := range []string{"workers", "velocity", "timidity", "duration"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateOpusNeeds48k(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.Encoder = "opus"
	assert.ErrorContains(t, cfg.Validate(), "48000")
	cfg.SampleRate = 48000
	assert.NoError(t, cfg.Validate())
}

func TestValidateNothingToRender(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.Programs = nil
	cfg.Percussion = false
	assert.ErrorContains(t, cfg.Validate(), "nothing to render")
	cfg.Percussion = true
	assert.NoError(t, cfg.Validate())
}

func TestValidateWholeMilliseconds(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	cfg.Duration = 500 * time.Microsecond
	assert.ErrorContains(t, cfg.Validate(), "at least 1ms")

	cfg.Duration = 1500 * time.Microsecond
	assert.ErrorContains(t, cfg.Validate(), "whole number of milliseconds")

	cfg.Duration = time.Millisecond
	cfg.Release = 250 * time.Microsecond
	assert.ErrorContains(t, cfg.Validate(), "release must be a whole number")

	cfg.Release = 0
	assert.NoError(t, cfg.Validate())
}
