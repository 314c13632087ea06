package pipeline

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

var ErrPrerequisiteMissing = errors.New("prerequisite missing")

// Prerequisites lists what must exist before any rendering starts.
type Prerequisites struct {
	SoundFont string
	OutputDir string
	Tools     []string
}

// Check reports every missing prerequisite in one error. The output root is
// never created here: a missing directory usually means a mistyped path.
func (p Prerequisites) Check(lookPath func(string) (string, error)) error {
	var missing []string

	if fi, err := os.Stat(p.SoundFont); err != nil {
		missing = append(missing, "sound font "+p.SoundFont+" not found")
	} else if fi.IsDir() {
		missing = append(missing, "sound font "+p.SoundFont+" is a directory")
	}

	if fi, err := os.Stat(p.OutputDir); err != nil {
		missing = append(missing, "output directory "+p.OutputDir+" does not exist")
	} else if !fi.IsDir() {
		missing = append(missing, "output path "+p.OutputDir+" is not a directory")
	}

	seen := make(map[string]bool)
	for _, tool := range p.Tools {
		if seen[tool] {
			continue
		}
		seen[tool] = true
		if _, err := lookPath(tool); err != nil {
			missing = append(missing, tool+" not found on PATH")
		}
	}

	if len(missing) > 0 {
		return errors.Wrap(ErrPrerequisiteMissing, strings.Join(missing, "; "))
	}
	return nil
}
