package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/satindergrewal/gmsamples/internal/config"
	"github.com/satindergrewal/gmsamples/internal/execx"
	"github.com/satindergrewal/gmsamples/internal/pipeline"
)

func main() {
	cfg, err := parseFlags(config.Load(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("gmsamples starting",
		zap.String("soundfont", cfg.SoundFont),
		zap.String("out", cfg.OutputDir),
		zap.Bool("dryRun", cfg.DryRun))

	sum, err := pipeline.New(cfg, execx.Exec{}, log).Run(ctx)
	if err != nil {
		log.Error("Render failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Info("Done",
		zap.Int("instruments", sum.Instruments),
		zap.Int("samples", sum.Samples),
		zap.Duration("elapsed", sum.Elapsed),
		zap.Bool("dryRun", sum.DryRun))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// parseFlags overrides the environment-derived cfg with command-line flags.
func parseFlags(cfg config.Config, args []string) (config.Config, error) {
	fs := flag.NewFlagSet("gmsamples", flag.ContinueOnError)

	programs := fs.String("programs", "", "GM programs to render, e.g. 0-7,24; \"\" or none for percussion only (default all)")
	velocities := fs.String("velocities", "", "note velocities, e.g. 40,85,120 (default 85)")
	duration := fs.Duration("duration", cfg.Duration, "sustain from note-on to note-off")
	release := fs.Duration("release", cfg.Release, "tail rendered after note-off")

	fs.StringVar(&cfg.SoundFont, "soundfont", cfg.SoundFont, "path to the .sf2 sound bank")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "existing output directory")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "sound set name written to the catalog")
	fs.BoolVar(&cfg.Percussion, "percussion", cfg.Percussion, "render the GM percussion kit")
	fs.StringVar(&cfg.Synth, "synth", cfg.Synth, "synthesizer: fluidsynth or meltysynth")
	fs.StringVar(&cfg.Encoder, "encoder", cfg.Encoder, "encoder: lame, ffmpeg or opus")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "VBR quality, 0 best .. 9 smallest")
	fs.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "render sample rate in Hz")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "instruments rendered in parallel")
	fs.DurationVar(&cfg.JobTimeout, "job-timeout", cfg.JobTimeout, "per-sample time limit, 0 disables")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "list what would be rendered and exit")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "debug logging")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, errors.Errorf("unexpected arguments: %v", fs.Args())
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg.Duration = *duration
	cfg.Release = *release
	if set["programs"] {
		l, err := config.ParseIntList(*programs)
		if err != nil {
			return cfg, errors.Wrap(err, "-programs")
		}
		cfg.Programs = l
	}
	if set["velocities"] {
		l, err := config.ParseIntList(*velocities)
		if err != nil {
			return cfg, errors.Wrap(err, "-velocities")
		}
		cfg.Velocities = l
	}
	return cfg, nil
}
