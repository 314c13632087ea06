// Package encode compresses rendered wav files for the browser sampler.
//
// Every encoder writes its output next to the input: same base name, the
// encoder's extension.
package encode

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/satindergrewal/gmsamples/internal/execx"
)

const (
	Lame   = "lame"
	FFmpeg = "ffmpeg"
	Opus   = "opus"
)

// Encoder compresses wavPath and returns the path it wrote.
type Encoder interface {
	Encode(ctx context.Context, wavPath string) (string, error)
	// Format is the output file extension without the dot.
	Format() string
	// Tools lists the executables that must be on PATH.
	Tools() []string
}

// Options configures an Encoder. Quality follows lame's VBR scale: 0 is
// best, 9 is smallest.
type Options struct {
	Quality int
	Runner  execx.Runner
	Logger  *zap.Logger
}

// New returns the encoder registered under name.
func New(name string, opts Options) (Encoder, error) {
	if opts.Runner == nil {
		opts.Runner = execx.Exec{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Quality < 0 || opts.Quality > 9 {
		return nil, errors.Errorf("quality %d outside 0..9", opts.Quality)
	}
	switch name {
	case Lame:
		return &LameEncoder{quality: opts.Quality, runner: opts.Runner}, nil
	case FFmpeg:
		return &FFmpegEncoder{quality: opts.Quality, runner: opts.Runner}, nil
	case Opus:
		return &OpusEncoder{bitrate: OpusBitrate(opts.Quality), log: opts.Logger.Named("encode")}, nil
	default:
		return nil, errors.Errorf("unknown encoder %q", name)
	}
}

// Sibling swaps the extension of path for ext.
func Sibling(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

// LameEncoder runs lame in VBR mode. Given no output argument lame writes
// <base>.mp3 beside the input.
type LameEncoder struct {
	quality int
	runner  execx.Runner
}

func (e *LameEncoder) Format() string  { return "mp3" }
func (e *LameEncoder) Tools() []string { return []string{Lame} }

func (e *LameEncoder) Args(wavPath string) []string {
	return []string{"--silent", "-V", strconv.Itoa(e.quality), wavPath}
}

func (e *LameEncoder) Encode(ctx context.Context, wavPath string) (string, error) {
	if err := e.runner.Run(ctx, Lame, e.Args(wavPath)...); err != nil {
		return "", errors.Wrapf(err, "lame encode %s", wavPath)
	}
	return Sibling(wavPath, e.Format()), nil
}

// FFmpegEncoder produces the same VBR MP3 through ffmpeg's libmp3lame.
type FFmpegEncoder struct {
	quality int
	runner  execx.Runner
}

func (e *FFmpegEncoder) Format() string  { return "mp3" }
func (e *FFmpegEncoder) Tools() []string { return []string{FFmpeg} }

func (e *FFmpegEncoder) Args(wavPath string) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-i", wavPath,
		"-codec:a", "libmp3lame",
		"-q:a", strconv.Itoa(e.quality),
		Sibling(wavPath, e.Format()),
	}
}

func (e *FFmpegEncoder) Encode(ctx context.Context, wavPath string) (string, error) {
	if err := e.runner.Run(ctx, FFmpeg, e.Args(wavPath)...); err != nil {
		return "", errors.Wrapf(err, "ffmpeg encode %s", wavPath)
	}
	return Sibling(wavPath, e.Format()), nil
}
