package encode

import (
	"context"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/gmsamples/internal/audio"
)

const opusPayloadType = 111

// OpusBitrate maps the 0 (best) .. 9 quality scale onto an Opus bitrate.
func OpusBitrate(quality int) int {
	return 192000 - quality*16000
}

// OpusEncoder writes Ogg Opus in-process. Input must be 48 kHz.
type OpusEncoder struct {
	bitrate int
	log     *zap.Logger
}

func (e *OpusEncoder) Format() string  { return "ogg" }
func (e *OpusEncoder) Tools() []string { return nil }

func (e *OpusEncoder) Encode(ctx context.Context, wavPath string) (string, error) {
	pcm, err := audio.ReadWAV(wavPath)
	if err != nil {
		return "", err
	}
	if pcm.SampleRate != audio.OpusSampleRate {
		return "", errors.Errorf("%s: opus needs %d Hz input, got %d Hz", wavPath, audio.OpusSampleRate, pcm.SampleRate)
	}
	if pcm.Channels < 1 || pcm.Channels > 2 {
		return "", errors.Errorf("%s: unsupported channel count %d", wavPath, pcm.Channels)
	}

	enc, err := opus.NewEncoder(pcm.SampleRate, pcm.Channels, opus.AppAudio)
	if err != nil {
		return "", errors.Wrap(err, "opus encoder")
	}
	if err := enc.SetBitrate(e.bitrate); err != nil {
		return "", errors.Wrap(err, "opus bitrate")
	}

	outPath := Sibling(wavPath, e.Format())
	ogg, err := oggwriter.New(outPath, uint32(pcm.SampleRate), uint16(pcm.Channels))
	if err != nil {
		return "", errors.Wrapf(err, "create %s", outPath)
	}

	frameSize := audio.FrameSize(pcm.SampleRate)
	frameSamples := frameSize * pcm.Channels
	frame := make([]int16, frameSamples)
	opusBuf := make([]byte, 4000)

	var seq uint16
	var ts uint32
	for off := 0; off < len(pcm.Samples); off += frameSamples {
		if err := ctx.Err(); err != nil {
			ogg.Close()
			return "", err
		}
		// Last frame is zero-padded to a full 20ms.
		n := copy(frame, pcm.Samples[off:])
		clear(frame[n:])

		size, err := enc.Encode(frame, opusBuf)
		if err != nil {
			ogg.Close()
			return "", errors.Wrapf(err, "opus encode %s", wavPath)
		}
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    opusPayloadType,
				SequenceNumber: seq,
				Timestamp:      ts,
			},
			Payload: opusBuf[:size],
		}
		if err := ogg.WriteRTP(pkt); err != nil {
			ogg.Close()
			return "", errors.Wrapf(err, "write %s", outPath)
		}
		seq++
		ts += uint32(frameSize)
	}

	if err := ogg.Close(); err != nil {
		return "", errors.Wrapf(err, "close %s", outPath)
	}
	e.log.Debug("Opus encoded", zap.String("path", outPath), zap.Duration("length", pcm.Duration()))
	return outPath, nil
}
