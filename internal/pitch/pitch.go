// Package pitch maps between note names and MIDI note numbers.
//
// The octave numbering puts C0 at MIDI 12, one octave above the common
// "C-1 = 0" convention. Sample file names depend on it, so it must not change.
package pitch

import (
	"strconv"

	"github.com/pkg/errors"
)

// MinNumber is the lowest MIDI number that has a Pitch (C0).
const MinNumber = 12

var (
	ErrInvalidNoteName = errors.New("invalid note name")
	ErrOutOfRange      = errors.New("note number out of range")
)

// Sharps are spelled as flats.
var noteNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

var noteIndex = func() map[string]int {
	m := make(map[string]int, len(noteNames))
	for i, n := range noteNames {
		m[n] = i
	}
	return m
}()

// Pitch is a note name plus octave.
type Pitch struct {
	Name   string
	Octave int
}

// NoteToNumber returns the MIDI number for name in octave. Name lookup is
// case-sensitive.
func NoteToNumber(name string, octave int) (int, error) {
	idx, ok := noteIndex[name]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidNoteName, "%q", name)
	}
	return idx + 12 + octave*12, nil
}

// NumberToPitch is the inverse of NoteToNumber.
func NumberToPitch(number int) (Pitch, error) {
	if number < MinNumber {
		return Pitch{}, errors.Wrapf(ErrOutOfRange, "%d < %d", number, MinNumber)
	}
	adjusted := number - 12
	return Pitch{Name: noteNames[adjusted%12], Octave: adjusted / 12}, nil
}

// MustNumber is NoteToNumber for compile-time constant names.
func MustNumber(name string, octave int) int {
	n, err := NoteToNumber(name, octave)
	if err != nil {
		panic(err)
	}
	return n
}

// Number returns the MIDI number of p.
func (p Pitch) Number() (int, error) {
	return NoteToNumber(p.Name, p.Octave)
}

func (p Pitch) String() string {
	return p.Name + strconv.Itoa(p.Octave)
}

// Parse reads a pitch such as "A0", "Bb3" or "C-1".
func Parse(s string) (Pitch, error) {
	for i := 1; i < len(s); i++ {
		if (s[i] >= '0' && s[i] <= '9') || s[i] == '-' {
			oct, err := strconv.Atoi(s[i:])
			if err != nil {
				return Pitch{}, errors.Wrapf(err, "parse octave in %q", s)
			}
			name := s[:i]
			if _, ok := noteIndex[name]; !ok {
				return Pitch{}, errors.Wrapf(ErrInvalidNoteName, "%q", name)
			}
			return Pitch{Name: name, Octave: oct}, nil
		}
	}
	return Pitch{}, errors.Errorf("parse pitch %q: missing octave", s)
}

// Range returns the MIDI numbers lo..hi inclusive, ascending.
func Range(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	out := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	return out
}
