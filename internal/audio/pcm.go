package audio

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// Interleave converts a rendered stereo pair to interleaved int16 PCM.
func Interleave(left, right []float32, rate int) *PCM {
	samples := make([]int16, len(left)*Channels)
	for i := range left {
		samples[i*2] = ClipInt16(left[i])
		samples[i*2+1] = ClipInt16(right[i])
	}
	return &PCM{SampleRate: rate, Channels: Channels, Samples: samples}
}

// WriteWAV writes p as a 16-bit PCM wav file.
func WriteWAV(path string, p *PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create wav")
	}

	data := make([]int, len(p.Samples))
	for i, s := range p.Samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: p.SampleRate, NumChannels: p.Channels},
		SourceBitDepth: BitDepth,
	}

	enc := wav.NewEncoder(f, p.SampleRate, BitDepth, p.Channels, 1)
	if err := enc.Write(buf); err != nil {
		f.Close()
		return errors.Wrapf(err, "write wav %s", path)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return errors.Wrapf(err, "finalize wav %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// ReadWAV decodes a 16-bit PCM wav file.
func ReadWAV(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open wav")
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.Errorf("%s: not a valid wav file", path)
	}
	if dec.BitDepth != BitDepth {
		return nil, errors.Errorf("%s: %d-bit wav, want %d-bit", path, dec.BitDepth, BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "decode wav %s", path)
	}

	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}
	return &PCM{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Samples:    samples,
	}, nil
}
