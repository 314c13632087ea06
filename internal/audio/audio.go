package audio

import "time"

const (
	DefaultSampleRate = 44100
	OpusSampleRate    = 48000
	Channels          = 2
	BitDepth          = 16
	FrameDuration     = 20 * time.Millisecond
	FadeDuration      = 10 * time.Millisecond // end-of-tail fade on in-process renders
)

// FrameSize returns samples per channel in one FrameDuration at rate.
func FrameSize(rate int) int {
	return rate * int(FrameDuration/time.Millisecond) / 1000
}

// SamplesFor returns the per-channel sample count covering d at rate.
func SamplesFor(d time.Duration, rate int) int {
	return int(d.Seconds() * float64(rate))
}

// PCM is interleaved signed 16-bit audio.
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames returns the number of per-channel samples.
func (p *PCM) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration returns the playback length of p.
func (p *PCM) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}
