// Package pipeline drives a full render: enumerate jobs, check
// prerequisites, fan instruments out to workers, then write the catalog.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/satindergrewal/gmsamples/internal/config"
	"github.com/satindergrewal/gmsamples/internal/encode"
	"github.com/satindergrewal/gmsamples/internal/execx"
	"github.com/satindergrewal/gmsamples/internal/job"
	"github.com/satindergrewal/gmsamples/internal/metadata"
	"github.com/satindergrewal/gmsamples/internal/render"
)

// Summary reports what a run produced.
type Summary struct {
	Instruments int
	Samples     int
	Elapsed     time.Duration
	DryRun      bool
}

// Pipeline runs one configured batch.
type Pipeline struct {
	cfg    config.Config
	runner execx.Runner
	log    *zap.Logger
}

// New returns a Pipeline. A nil runner uses os/exec; a nil logger discards.
func New(cfg config.Config, runner execx.Runner, log *zap.Logger) *Pipeline {
	if runner == nil {
		runner = execx.Exec{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, runner: runner, log: log.Named("pipeline")}
}

// Run renders everything or returns the first error. Any error means the
// output tree is incomplete and should not be published.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	cfg := p.cfg

	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	groups, err := job.Enumerate(job.Options{
		Programs:   cfg.Programs,
		Percussion: cfg.Percussion,
		Velocities: cfg.Velocities,
	})
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Instruments: len(groups), Samples: job.Count(groups)}

	if cfg.DryRun {
		for _, g := range groups {
			p.log.Info("Planned instrument",
				zap.String("instrument", g.Key),
				zap.Int("program", g.Program),
				zap.Int("minPitch", g.MinPitch),
				zap.Int("maxPitch", g.MaxPitch),
				zap.Int("samples", len(g.Jobs)))
		}
		sum.DryRun = true
		sum.Elapsed = time.Since(start)
		return sum, nil
	}

	synth, err := render.New(cfg.Synth, render.Options{
		SoundFont:  cfg.SoundFont,
		SampleRate: cfg.SampleRate,
		Runner:     p.runner,
		Logger:     p.log,
	})
	if err != nil {
		return Summary{}, err
	}
	enc, err := encode.New(cfg.Encoder, encode.Options{
		Quality: cfg.Quality,
		Runner:  p.runner,
		Logger:  p.log,
	})
	if err != nil {
		return Summary{}, err
	}

	prereq := Prerequisites{
		SoundFont: cfg.SoundFont,
		OutputDir: cfg.OutputDir,
		Tools:     append(synth.Tools(), enc.Tools()...),
	}
	if err := prereq.Check(p.runner.LookPath); err != nil {
		return Summary{}, err
	}

	meta, err := metadata.NewWriter()
	if err != nil {
		return Summary{}, err
	}
	driver := NewDriver(DriverConfig{
		OutputDir:  cfg.OutputDir,
		Sustain:    cfg.Duration,
		Release:    cfg.Release,
		JobTimeout: cfg.JobTimeout,
	}, synth, enc, meta, p.log)

	p.log.Info("Starting render",
		zap.Int("instruments", sum.Instruments),
		zap.Int("samples", sum.Samples),
		zap.Int("workers", cfg.Workers),
		zap.String("synth", cfg.Synth),
		zap.String("encoder", cfg.Encoder))

	if err := Dispatch(ctx, groups, cfg.Workers, driver.RenderGroup); err != nil {
		return Summary{}, errors.Wrap(err, "render aborted")
	}

	// Only reached once every instrument descriptor is on disk.
	catalogPath := filepath.Join(cfg.OutputDir, metadata.CatalogFile)
	if err := meta.WriteCatalog(catalogPath, metadata.CatalogFor(cfg.Name, groups)); err != nil {
		return Summary{}, errors.Wrap(err, "catalog")
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}
