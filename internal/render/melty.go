package render

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sinshu/go-meltysynth/meltysynth"
	"go.uber.org/zap"

	"github.com/satindergrewal/gmsamples/internal/audio"
)

// Melty renders in-process with meltysynth. The SoundFont is parsed once and
// shared; each Render builds its own Synthesizer so workers stay independent.
type Melty struct {
	path       string
	sampleRate int
	log        *zap.Logger

	once    sync.Once
	font    *meltysynth.SoundFont
	loadErr error
}

func NewMelty(soundFont string, sampleRate int, log *zap.Logger) *Melty {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &Melty{path: soundFont, sampleRate: sampleRate, log: log}
}

func (m *Melty) Tools() []string { return nil }

func (m *Melty) soundFont() (*meltysynth.SoundFont, error) {
	m.once.Do(func() {
		f, err := os.Open(m.path)
		if err != nil {
			m.loadErr = errors.Wrap(err, "open soundfont")
			return
		}
		defer f.Close()
		m.font, m.loadErr = meltysynth.NewSoundFont(f)
		if m.loadErr != nil {
			m.loadErr = errors.Wrapf(m.loadErr, "parse soundfont %s", m.path)
			return
		}
		m.log.Info("SoundFont loaded", zap.String("path", m.path))
	})
	return m.font, m.loadErr
}

func (m *Melty) Render(ctx context.Context, midPath, wavPath string) error {
	font, err := m.soundFont()
	if err != nil {
		return err
	}

	mf, err := os.Open(midPath)
	if err != nil {
		return errors.Wrap(err, "open midi")
	}
	midiFile, err := meltysynth.NewMidiFile(mf)
	mf.Close()
	if err != nil {
		return errors.Wrapf(err, "parse midi %s", midPath)
	}

	settings := meltysynth.NewSynthesizerSettings(int32(m.sampleRate))
	settings.EnableReverbAndChorus = false
	synth, err := meltysynth.NewSynthesizer(font, settings)
	if err != nil {
		return errors.Wrap(err, "create synthesizer")
	}

	seq := meltysynth.NewMidiFileSequencer(synth)
	seq.Play(midiFile, false)

	length := audio.SamplesFor(midiFile.GetLength(), m.sampleRate)
	left := make([]float32, length)
	right := make([]float32, length)

	// Render in blocks so a cancelled run stops promptly.
	const block = 4096
	for pos := 0; pos < length; pos += block {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(pos+block, length)
		seq.Render(left[pos:end], right[pos:end])
	}
	audio.FadeOut(left, right, audio.SamplesFor(audio.FadeDuration, m.sampleRate))

	return audio.WriteWAV(wavPath, audio.Interleave(left, right, m.sampleRate))
}
