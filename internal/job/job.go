// Package job expands the render configuration into per-instrument groups of
// sample jobs.
package job

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/satindergrewal/gmsamples/internal/gm"
	"github.com/satindergrewal/gmsamples/internal/pitch"
)

// Melodic instruments cover the 88 piano keys.
var (
	MelodicLow  = pitch.MustNumber("A", 0)
	MelodicHigh = pitch.MustNumber("C", 8)
)

// Job is one sample to render.
type Job struct {
	Channel  int // 0 melodic, gm.PercussionChannel for the kit
	Program  int // ignored by GM on the percussion channel
	Number   int // MIDI note
	Velocity int
	Key      string // instrument slug, names the output directory
	Name     string // sample name, e.g. "p60" or "p60_v85"
}

// TempBase is the base name for intermediate files. It includes both the
// instrument key and the sample name so concurrent workers never collide.
func (j Job) TempBase() string {
	return j.Key + "_" + j.Name
}

// Group is every job for one instrument, in render order.
type Group struct {
	Key         string
	DisplayName string
	Program     int
	Percussion  bool
	MinPitch    int
	MaxPitch    int
	Velocities  []int
	Jobs        []Job
}

// SampleNames returns the job names in render order.
func (g Group) SampleNames() []string {
	names := make([]string, len(g.Jobs))
	for i, j := range g.Jobs {
		names[i] = j.Name
	}
	return names
}

// Options selects what to enumerate.
type Options struct {
	Programs   []int
	Percussion bool
	Velocities []int
}

// Validate checks program and velocity bounds.
func (o Options) Validate() error {
	if len(o.Velocities) == 0 {
		return errors.New("at least one velocity is required")
	}
	seenVel := make(map[int]bool, len(o.Velocities))
	for _, v := range o.Velocities {
		if v < 0 || v > 127 {
			return errors.Errorf("velocity %d outside 0..127", v)
		}
		if seenVel[v] {
			return errors.Errorf("velocity %d listed twice", v)
		}
		seenVel[v] = true
	}
	seen := make(map[int]bool, len(o.Programs))
	for _, p := range o.Programs {
		if p < 0 || p > 127 {
			return errors.Errorf("program %d outside 0..127", p)
		}
		if seen[p] {
			return errors.Errorf("program %d listed twice", p)
		}
		seen[p] = true
	}
	return nil
}

// Enumerate returns one group per program in input order, followed by the
// percussion kit when enabled.
func Enumerate(opts Options) ([]Group, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "enumerate jobs")
	}

	groups := make([]Group, 0, len(opts.Programs)+1)
	for _, program := range opts.Programs {
		name := gm.Name(program)
		groups = append(groups, newGroup(name, gm.Slug(name), program, false, MelodicLow, MelodicHigh, opts.Velocities))
	}
	if opts.Percussion {
		// Program stays 0 for the kit; the synth picks drums by channel.
		groups = append(groups, newGroup(gm.PercussionName, gm.PercussionKey, 0, true, gm.PercussionLow, gm.PercussionHigh, opts.Velocities))
	}
	return groups, nil
}

func newGroup(display, key string, program int, percussion bool, lo, hi int, velocities []int) Group {
	channel := 0
	if percussion {
		channel = gm.PercussionChannel
	}
	g := Group{
		Key:         key,
		DisplayName: display,
		Program:     program,
		Percussion:  percussion,
		MinPitch:    lo,
		MaxPitch:    hi,
		Velocities:  append([]int(nil), velocities...),
	}
	for _, n := range pitch.Range(lo, hi) {
		for _, v := range velocities {
			g.Jobs = append(g.Jobs, Job{
				Channel:  channel,
				Program:  program,
				Number:   n,
				Velocity: v,
				Key:      key,
				Name:     SampleName(n, v, len(velocities) > 1),
			})
		}
	}
	return g
}

// SampleName formats the per-sample file stem.
func SampleName(number, velocity int, withVelocity bool) string {
	if withVelocity {
		return fmt.Sprintf("p%d_v%d", number, velocity)
	}
	return fmt.Sprintf("p%d", number)
}

// Count returns the total number of jobs across groups.
func Count(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Jobs)
	}
	return n
}
