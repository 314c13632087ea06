// Package render turns a MIDI file into a wav file using a SoundFont.
package render

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/satindergrewal/gmsamples/internal/execx"
)

const (
	FluidSynth = "fluidsynth"
	MeltySynth = "meltysynth"
)

// Synthesizer renders midPath against the configured sound bank into wavPath.
type Synthesizer interface {
	Render(ctx context.Context, midPath, wavPath string) error
	// Tools lists the executables that must be on PATH.
	Tools() []string
}

// Options configures a Synthesizer.
type Options struct {
	SoundFont  string
	SampleRate int
	Runner     execx.Runner
	Logger     *zap.Logger
}

// New returns the synthesizer registered under name.
func New(name string, opts Options) (Synthesizer, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	switch name {
	case FluidSynth:
		if opts.Runner == nil {
			opts.Runner = execx.Exec{}
		}
		return &Fluid{soundFont: opts.SoundFont, sampleRate: opts.SampleRate, runner: opts.Runner}, nil
	case MeltySynth:
		return NewMelty(opts.SoundFont, opts.SampleRate, opts.Logger.Named("render")), nil
	default:
		return nil, errors.Errorf("unknown synthesizer %q", name)
	}
}

// Fluid drives the fluidsynth command-line renderer.
type Fluid struct {
	soundFont  string
	sampleRate int
	runner     execx.Runner
}

func (f *Fluid) Tools() []string { return []string{FluidSynth} }

// Args returns the fluidsynth argv for one render: no MIDI input driver, no
// shell, reverb off, unity gain.
func (f *Fluid) Args(midPath, wavPath string) []string {
	args := []string{"-n", "-i", "-R", "0", "-g", "1.0"}
	if f.sampleRate > 0 {
		args = append(args, "-r", strconv.Itoa(f.sampleRate))
	}
	return append(args, "-F", wavPath, f.soundFont, midPath)
}

func (f *Fluid) Render(ctx context.Context, midPath, wavPath string) error {
	if err := f.runner.Run(ctx, FluidSynth, f.Args(midPath, wavPath)...); err != nil {
		return errors.Wrapf(err, "fluidsynth render %s", midPath)
	}
	return nil
}
