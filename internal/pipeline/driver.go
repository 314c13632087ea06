package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/satindergrewal/gmsamples/internal/encode"
	"github.com/satindergrewal/gmsamples/internal/job"
	"github.com/satindergrewal/gmsamples/internal/metadata"
	"github.com/satindergrewal/gmsamples/internal/midifile"
	"github.com/satindergrewal/gmsamples/internal/render"
)

// Driver renders jobs into the output tree. Intermediates are written to the
// output root under job.TempBase names and removed once the job finishes.
type Driver struct {
	outDir  string
	sustain time.Duration
	release time.Duration
	timeout time.Duration

	synth render.Synthesizer
	enc   encode.Encoder
	meta  *metadata.Writer
	log   *zap.Logger
}

// DriverConfig holds the Driver's fixed parameters.
type DriverConfig struct {
	OutputDir  string
	Sustain    time.Duration
	Release    time.Duration
	JobTimeout time.Duration
}

func NewDriver(cfg DriverConfig, synth render.Synthesizer, enc encode.Encoder, meta *metadata.Writer, log *zap.Logger) *Driver {
	return &Driver{
		outDir:  cfg.OutputDir,
		sustain: cfg.Sustain,
		release: cfg.Release,
		timeout: cfg.JobTimeout,
		synth:   synth,
		enc:     enc,
		meta:    meta,
		log:     log,
	}
}

// SamplePath is where a job's encoded sample ends up.
func (d *Driver) SamplePath(j job.Job) string {
	return filepath.Join(d.outDir, j.Key, j.Name+"."+d.enc.Format())
}

// TempPath is the intermediate file for j with the given extension.
func (d *Driver) TempPath(j job.Job, ext string) string {
	return filepath.Join(d.outDir, j.TempBase()+"."+ext)
}

// RenderJob writes the MIDI file, renders it, encodes it and moves the
// result into the instrument directory. The first failing step aborts the
// job.
func (d *Driver) RenderJob(ctx context.Context, j job.Job) (err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	midPath := d.TempPath(j, "mid")
	wavPath := d.TempPath(j, "wav")
	encPath := d.TempPath(j, d.enc.Format())
	defer func() {
		os.Remove(midPath)
		os.Remove(wavPath)
		if err != nil {
			os.Remove(encPath)
			err = errors.Wrapf(err, "render %s/%s", j.Key, j.Name)
		}
	}()

	err = midifile.WriteFile(midPath, midifile.Note{
		Channel:  uint8(j.Channel),
		Program:  uint8(j.Program),
		Key:      uint8(j.Number),
		Velocity: uint8(j.Velocity),
		Sustain:  d.sustain,
		Release:  d.release,
	})
	if err != nil {
		return err
	}
	if err = d.synth.Render(ctx, midPath, wavPath); err != nil {
		return err
	}
	if _, err = os.Stat(wavPath); err != nil {
		return errors.Wrap(err, "synthesizer produced no output")
	}

	out, err := d.enc.Encode(ctx, wavPath)
	if err != nil {
		return err
	}
	encPath = out
	return errors.Wrap(os.Rename(out, d.SamplePath(j)), "move sample")
}

// RenderGroup renders every job of g in order, then writes the instrument
// descriptor.
func (d *Driver) RenderGroup(ctx context.Context, g job.Group) error {
	start := time.Now()
	dir := filepath.Join(d.outDir, g.Key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	log := d.log.With(zap.String("instrument", g.Key))
	log.Info("Rendering instrument", zap.String("name", g.DisplayName), zap.Int("samples", len(g.Jobs)))

	for _, j := range g.Jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debug("Rendering sample", zap.String("sample", j.Name), zap.Int("note", j.Number), zap.Int("velocity", j.Velocity))
		if err := d.RenderJob(ctx, j); err != nil {
			return err
		}
	}

	doc := metadata.InstrumentFor(g, d.sustain, d.release, d.enc.Format())
	if err := d.meta.WriteInstrument(filepath.Join(dir, metadata.InstrumentFile), doc); err != nil {
		return errors.Wrapf(err, "instrument %s", g.Key)
	}
	log.Info("Instrument ready", zap.Duration("elapsed", time.Since(start)))
	return nil
}
