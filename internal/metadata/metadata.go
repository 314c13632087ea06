// Package metadata writes the JSON descriptors the browser sampler loads:
// one instrument.json per instrument directory and a soundfont.json catalog
// at the output root.
package metadata

import (
	"embed"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/satindergrewal/gmsamples/internal/gm"
	"github.com/satindergrewal/gmsamples/internal/job"
)

const (
	InstrumentFile = "instrument.json"
	CatalogFile    = "soundfont.json"
)

//go:embed schema/*.json
var schemaFS embed.FS

// Instrument describes one rendered instrument directory.
type Instrument struct {
	Name            string   `json:"name"`
	MinPitch        int      `json:"minPitch"`
	MaxPitch        int      `json:"maxPitch"`
	DurationSeconds float64  `json:"durationSeconds"`
	ReleaseSeconds  float64  `json:"releaseSeconds"`
	Velocities      []int    `json:"velocities,omitempty"` // only with more than one velocity
	Format          string   `json:"format"`
	Samples         []string `json:"samples"`
}

// Catalog lists every instrument in the set, keyed by program number or
// "drums".
type Catalog struct {
	Name        string            `json:"name"`
	Instruments map[string]string `json:"instruments"`
}

// InstrumentFor builds the descriptor for a finished group.
func InstrumentFor(g job.Group, sustain, release time.Duration, format string) Instrument {
	doc := Instrument{
		Name:            g.DisplayName,
		MinPitch:        g.MinPitch,
		MaxPitch:        g.MaxPitch,
		DurationSeconds: sustain.Seconds(),
		ReleaseSeconds:  release.Seconds(),
		Format:          format,
		Samples:         g.SampleNames(),
	}
	if len(g.Velocities) > 1 {
		doc.Velocities = append([]int(nil), g.Velocities...)
	}
	return doc
}

// CatalogFor maps each group to its key.
func CatalogFor(name string, groups []job.Group) Catalog {
	c := Catalog{Name: name, Instruments: make(map[string]string, len(groups))}
	for _, g := range groups {
		id := strconv.Itoa(g.Program)
		if g.Percussion {
			id = gm.DrumsCatalogID
		}
		c.Instruments[id] = g.Key
	}
	return c
}

// Writer validates documents against the embedded schemas before writing.
type Writer struct {
	instrument *gojsonschema.Schema
	catalog    *gojsonschema.Schema
}

func NewWriter() (*Writer, error) {
	inst, err := loadSchema("schema/instrument.json")
	if err != nil {
		return nil, err
	}
	cat, err := loadSchema("schema/soundfont.json")
	if err != nil {
		return nil, err
	}
	return &Writer{instrument: inst, catalog: cat}, nil
}

func loadSchema(name string) (*gojsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "compile %s", name)
	}
	return s, nil
}

func (w *Writer) WriteInstrument(path string, doc Instrument) error {
	return write(w.instrument, path, doc)
}

func (w *Writer) WriteCatalog(path string, doc Catalog) error {
	return write(w.catalog, path, doc)
}

func write(schema *gojsonschema.Schema, path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal metadata")
	}
	if err := validate(schema, data); err != nil {
		return errors.Wrap(err, path)
	}
	return errors.Wrap(os.WriteFile(path, append(data, '\n'), 0644), "write metadata")
}

func validate(schema *gojsonschema.Schema, data []byte) error {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.Wrap(err, "validate metadata")
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.Errorf("invalid metadata: %s", strings.Join(msgs, "; "))
}
