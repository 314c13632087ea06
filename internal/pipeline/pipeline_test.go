package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/gmsamples/internal/config"
	"github.com/satindergrewal/gmsamples/internal/encode"
	"github.com/satindergrewal/gmsamples/internal/execx"
	"github.com/satindergrewal/gmsamples/internal/metadata"
)

// fakeTools stands in for fluidsynth and lame: each call writes the file the
// real tool would have written.
type fakeTools struct {
	mu      sync.Mutex
	calls   map[string]int
	failOn  string // substring of an argument that makes the call fail
	missing map[string]bool
}

func newFakeTools() *fakeTools {
	return &fakeTools{calls: make(map[string]int), missing: make(map[string]bool)}
}

func (f *fakeTools) Run(ctx context.Context, name string, args ...string) error {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()

	if f.failOn != "" {
		for _, a := range args {
			if strings.Contains(a, f.failOn) {
				return &execx.ToolError{Args: append([]string{name}, args...), Output: "boom", Err: errors.New("exit status 1")}
			}
		}
	}

	var out string
	switch name {
	case "fluidsynth":
		for i, a := range args {
			if a == "-F" && i+1 < len(args) {
				out = args[i+1]
			}
		}
	case "lame":
		out = encode.Sibling(args[len(args)-1], "mp3")
	case "ffmpeg":
		out = args[len(args)-1]
	}
	if out == "" {
		return errors.Errorf("fake %s: no output in %v", name, args)
	}
	return os.WriteFile(out, []byte(name), 0644)
}

func (f *fakeTools) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", errors.Errorf("%s: not found", name)
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeTools) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	sf := filepath.Join(dir, "bank.sf2")
	require.NoError(t, os.WriteFile(sf, []byte("sfbk"), 0644))
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0755))
	return config.Config{
		SoundFont:  sf,
		OutputDir:  out,
		Name:       "TestBank",
		Programs:   []int{0},
		Velocities: []int{85},
		Duration:   3 * time.Second,
		Release:    time.Second,
		Synth:      "fluidsynth",
		Encoder:    "lame",
		Quality:    2,
		SampleRate: 44100,
		Workers:    4,
	}
}

func TestRunPiano(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools()

	sum, err := New(cfg, tools, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Instruments)
	assert.Equal(t, 88, sum.Samples)
	assert.Equal(t, 88, tools.count("fluidsynth"))
	assert.Equal(t, 88, tools.count("lame"))

	mp3s, err := filepath.Glob(filepath.Join(cfg.OutputDir, "acoustic_grand_piano", "*.mp3"))
	require.NoError(t, err)
	assert.Len(t, mp3s, 88)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "acoustic_grand_piano", "p21.mp3"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "acoustic_grand_piano", "p108.mp3"))

	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "acoustic_grand_piano", metadata.InstrumentFile))
	require.NoError(t, err)
	var inst metadata.Instrument
	require.NoError(t, json.Unmarshal(raw, &inst))
	assert.Equal(t, "Acoustic Grand Piano", inst.Name)
	assert.Equal(t, 21, inst.MinPitch)
	assert.Equal(t, 108, inst.MaxPitch)
	assert.Equal(t, 3.0, inst.DurationSeconds)
	assert.Equal(t, 1.0, inst.ReleaseSeconds)
	assert.Empty(t, inst.Velocities)

	raw, err = os.ReadFile(filepath.Join(cfg.OutputDir, metadata.CatalogFile))
	require.NoError(t, err)
	var cat metadata.Catalog
	require.NoError(t, json.Unmarshal(raw, &cat))
	assert.Equal(t, "TestBank", cat.Name)
	assert.Equal(t, map[string]string{"0": "acoustic_grand_piano"}, cat.Instruments)

	// No intermediates left behind at the root.
	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"acoustic_grand_piano", metadata.CatalogFile}, names)
}

func TestRunMultipleVelocitiesAndDrums(t *testing.T) {
	cfg := testConfig(t)
	cfg.Programs = []int{0, 40}
	cfg.Percussion = true
	cfg.Velocities = []int{40, 100}
	cfg.Encoder = "ffmpeg"

	sum, err := New(cfg, newFakeTools(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Instruments)
	assert.Equal(t, (88+88+47)*2, sum.Samples)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "violin", "p60_v40.mp3"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "percussion", "p35_v100.mp3"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "percussion", metadata.InstrumentFile))

	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, metadata.CatalogFile))
	require.NoError(t, err)
	var cat metadata.Catalog
	require.NoError(t, json.Unmarshal(raw, &cat))
	assert.Equal(t, map[string]string{
		"0":     "acoustic_grand_piano",
		"40":    "violin",
		"drums": "percussion",
	}, cat.Instruments)
}

func TestRunToolFailureAborts(t *testing.T) {
	cfg := testConfig(t)
	tools := newFakeTools()
	tools.failOn = "acoustic_grand_piano_p60"

	_, err := New(cfg, tools, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, execx.ErrToolFailed), "err = %v", err)
	assert.Contains(t, err.Error(), "acoustic_grand_piano/p60")
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, metadata.CatalogFile))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "acoustic_grand_piano", metadata.InstrumentFile))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "acoustic_grand_piano_p60.mid"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "acoustic_grand_piano_p60.wav"))
}

func TestRunMissingPrerequisites(t *testing.T) {
	cfg := testConfig(t)
	cfg.SoundFont = filepath.Join(t.TempDir(), "nope.sf2")
	tools := newFakeTools()
	tools.missing["fluidsynth"] = true
	tools.missing["lame"] = true

	_, err := New(cfg, tools, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrerequisiteMissing))
	for _, want := range []string{"nope.sf2", "fluidsynth", "lame"} {
		assert.Contains(t, err.Error(), want)
	}
	assert.Zero(t, tools.count("fluidsynth"))
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workers = 0
	_, err := New(cfg, newFakeTools(), nil).Run(context.Background())
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestRunDryRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	cfg.Percussion = true
	tools := newFakeTools()

	sum, err := New(cfg, tools, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.DryRun)
	assert.Equal(t, 2, sum.Instruments)
	assert.Equal(t, 88+47, sum.Samples)
	assert.Zero(t, tools.count("fluidsynth"))

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, newFakeTools(), nil).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, metadata.CatalogFile))
}

func TestPrerequisitesCheck(t *testing.T) {
	dir := t.TempDir()
	sf := filepath.Join(dir, "bank.sf2")
	require.NoError(t, os.WriteFile(sf, nil, 0644))

	ok := func(string) (string, error) { return "/bin/x", nil }
	assert.NoError(t, Prerequisites{SoundFont: sf, OutputDir: dir, Tools: []string{"lame"}}.Check(ok))

	lookups := 0
	missing := func(string) (string, error) { lookups++; return "", errors.New("not found") }
	err := Prerequisites{
		SoundFont: dir,
		OutputDir: sf,
		Tools:     []string{"lame", "lame", "fluidsynth"},
	}.Check(missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrerequisiteMissing))
	assert.Equal(t, 2, lookups)
	assert.Contains(t, err.Error(), "is a directory")
	assert.Contains(t, err.Error(), "is not a directory")
	assert.Equal(t, 1, strings.Count(err.Error(), "lame not found"))
}
