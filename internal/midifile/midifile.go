// Package midifile writes the single-note MIDI files fed to the synthesizer.
package midifile

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// At 60 bpm and 1000 ticks per quarter one tick is one millisecond.
const (
	TicksPerQuarter = 1000
	Tempo           = 60.0
)

// Note describes the one note a sample file plays.
type Note struct {
	Channel  uint8
	Program  uint8
	Key      uint8
	Velocity uint8
	Sustain  time.Duration // note-on to note-off
	Release  time.Duration // tail rendered after note-off
}

func ticks(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}

// Build returns the SMF for n: program change and note-on at 0, note-off
// after Sustain, then a zero-velocity note-on after Release so the renderer
// keeps running through the tail.
func Build(n Note) (*smf.SMF, error) {
	if n.Channel > 15 || n.Program > 127 || n.Key > 127 || n.Velocity > 127 {
		return nil, errors.Errorf("note out of range: %+v", n)
	}
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(Tempo))
	tr.Add(0, midi.ProgramChange(n.Channel, n.Program))
	tr.Add(0, midi.NoteOn(n.Channel, n.Key, n.Velocity))
	tr.Add(ticks(n.Sustain), midi.NoteOff(n.Channel, n.Key))
	tr.Add(ticks(n.Release), midi.NoteOn(n.Channel, n.Key, 0))
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := s.Add(tr); err != nil {
		return nil, errors.Wrap(err, "add track")
	}
	return s, nil
}

// Encode writes n as a standard MIDI file to w.
func Encode(w io.Writer, n Note) error {
	s, err := Build(n)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return errors.Wrap(err, "write smf")
	}
	return nil
}

// WriteFile encodes n to path.
func WriteFile(path string, n Note) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create midi file")
	}
	if err := Encode(f, n); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
