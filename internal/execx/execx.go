// Package execx runs external tools with an explicit argument list.
package execx

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

var ErrToolFailed = errors.New("external tool failed")

// Runner starts a program and waits for it to exit. Implementations must not
// pass args through a shell.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	LookPath(name string) (string, error)
}

// ToolError reports a failed invocation with its command line and output.
type ToolError struct {
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := strings.Join(e.Args, " ") + ": " + e.Err.Error()
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

func (e *ToolError) Is(target error) bool { return target == ErrToolFailed }

// Exec is the os/exec backed Runner.
type Exec struct{}

func (Exec) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Wrap(ctxErr, err.Error())
		}
		return &ToolError{Args: append([]string{name}, args...), Output: string(out), Err: err}
	}
	return nil
}

func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
