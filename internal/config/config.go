package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/satindergrewal/gmsamples/internal/audio"
	"github.com/satindergrewal/gmsamples/internal/encode"
	"github.com/satindergrewal/gmsamples/internal/render"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds all run parameters. It is built once in main and passed by
// value; nothing reads it from globals.
type Config struct {
	// Inputs and outputs
	SoundFont string // .sf2 sound bank
	OutputDir string // must already exist
	Name      string // sound set name written to the catalog

	// What to render
	Programs   []int
	Percussion bool
	Velocities []int
	Duration   time.Duration // note-on to note-off
	Release    time.Duration // tail after note-off

	// How to render
	Synth      string // fluidsynth, meltysynth
	Encoder    string // lame, ffmpeg, opus
	Quality    int    // VBR quality, 0 best .. 9 smallest
	SampleRate int
	Workers    int
	JobTimeout time.Duration // 0 disables

	DryRun  bool
	Verbose bool

	envProblems []string // unparseable env values seen by Load
}

// Load reads configuration from environment variables with sane defaults.
// A variable that is set but does not parse keeps its default and is
// reported by Validate.
func Load() Config {
	e := &envReader{}
	cfg := Config{
		SoundFont: e.envStr("GMSAMPLES_SOUNDFONT", "FluidR3_GM.sf2"),
		OutputDir: e.envStr("GMSAMPLES_OUT", "out"),
		Name:      e.envStr("GMSAMPLES_NAME", "FluidR3_GM"),

		Percussion: e.envBool("GMSAMPLES_PERCUSSION", true),
		Duration:   time.Duration(e.envInt("GMSAMPLES_DURATION_MS", 3000)) * time.Millisecond,
		Release:    time.Duration(e.envInt("GMSAMPLES_RELEASE_MS", 1000)) * time.Millisecond,

		Synth:      e.envStr("GMSAMPLES_SYNTH", render.FluidSynth),
		Encoder:    e.envStr("GMSAMPLES_ENCODER", encode.Lame),
		Quality:    e.envInt("GMSAMPLES_QUALITY", 2),
		SampleRate: e.envInt("GMSAMPLES_SAMPLE_RATE", audio.DefaultSampleRate),
		Workers:    e.envInt("GMSAMPLES_WORKERS", 10),
		JobTimeout: e.envDuration("GMSAMPLES_JOB_TIMEOUT", 0),
	}
	cfg.Programs = e.envList("GMSAMPLES_PROGRAMS", "0-127")
	cfg.Velocities = e.envList("GMSAMPLES_VELOCITIES", "85")
	cfg.envProblems = e.problems
	return cfg
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, errors.Errorf(format, args...).Error())
	}
	problems = append(problems, c.envProblems...)

	if c.SoundFont == "" {
		add("sound font path is empty")
	}
	if c.OutputDir == "" {
		add("output directory is empty")
	}
	if c.Name == "" {
		add("sound set name is empty")
	}
	if len(c.Programs) == 0 && !c.Percussion {
		add("nothing to render: no programs and percussion disabled")
	}
	if len(c.Velocities) == 0 {
		add("at least one velocity is required")
	}
	// MIDI events land on whole milliseconds.
	if c.Duration < time.Millisecond {
		add("duration must be at least 1ms, got %v", c.Duration)
	} else if c.Duration%time.Millisecond != 0 {
		add("duration must be a whole number of milliseconds, got %v", c.Duration)
	}
	if c.Release < 0 {
		add("release must not be negative, got %v", c.Release)
	} else if c.Release%time.Millisecond != 0 {
		add("release must be a whole number of milliseconds, got %v", c.Release)
	}
	if c.Workers < 1 {
		add("workers must be at least 1, got %d", c.Workers)
	}
	if c.Quality < 0 || c.Quality > 9 {
		add("quality must be 0..9, got %d", c.Quality)
	}
	if c.SampleRate <= 0 {
		add("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.JobTimeout < 0 {
		add("job timeout must not be negative, got %v", c.JobTimeout)
	}
	switch c.Synth {
	case render.FluidSynth, render.MeltySynth:
	default:
		add("unknown synth %q", c.Synth)
	}
	switch c.Encoder {
	case encode.Lame, encode.FFmpeg:
	case encode.Opus:
		if c.SampleRate != audio.OpusSampleRate {
			add("opus encoder needs sample rate %d, got %d", audio.OpusSampleRate, c.SampleRate)
		}
	default:
		add("unknown encoder %q", c.Encoder)
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ParseIntList parses comma-separated integers and inclusive ranges, e.g.
// "0-7,24,40-42". Order is preserved. "" and "none" are the empty list.
func ParseIntList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "bad number %q", part)
		}
		if !isRange {
			out = append(out, a)
			continue
		}
		b, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "bad range %q", part)
		}
		if b < a {
			return nil, errors.Wrapf(ErrInvalid, "descending range %q", part)
		}
		for n := a; n <= b; n++ {
			out = append(out, n)
		}
	}
	return out, nil
}

// envReader records every variable that is set but unparseable.
type envReader struct {
	problems []string
}

func (e *envReader) bad(key, v, want string) {
	e.problems = append(e.problems, key+"="+strconv.Quote(v)+" is not "+want)
}

func (e *envReader) envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (e *envReader) envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		e.bad(key, v, "an integer")
	}
	return fallback
}

func (e *envReader) envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
		e.bad(key, v, "a boolean")
	}
	return fallback
}

func (e *envReader) envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
		e.bad(key, v, "a duration")
	}
	return fallback
}

// envList distinguishes unset (default) from set to "" or "none" (empty).
func (e *envReader) envList(key, fallback string) []int {
	v, ok := os.LookupEnv(key)
	if !ok {
		v = fallback
	}
	l, err := ParseIntList(v)
	if err != nil {
		e.bad(key, v, "a list like 0-7,24")
		l, _ = ParseIntList(fallback)
	}
	return l
}
