// Package exec runs short-lived local commands and captures their output.
package exec

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/rileyhilliard/termdash/internal/errors"
)

// waitDelay bounds how long Run waits for output pipes after the process
// exits or ctx expires.
const waitDelay = 500 * time.Millisecond

// Output is the captured result of a finished command.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs a command in dir and captures its output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Output, error)
}

// Local runs commands directly on this machine, without a shell.
type Local struct{}

// Run executes name with args. A non-zero exit is reported through
// Output.ExitCode, not as an error. Errors mean the command could not run at
// all or was killed when ctx expired.
func (Local) Run(ctx context.Context, dir, name string, args ...string) (Output, error) {
	command := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		command.Dir = dir
	}
	command.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	runErr := command.Run()
	if runErr == exec.ErrWaitDelay {
		// exited cleanly, but a child kept the pipes open
		runErr = nil
	}
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		return out, errors.WrapWithCode(ctxErr, errors.ErrExec,
			"Command took too long: "+name,
			"")
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		out.ExitCode = -1
		return out, errors.WrapWithCode(runErr, errors.ErrExec,
			"Couldn't run "+name,
			"Make sure "+name+" is installed and on your PATH.")
	}

	return out, nil
}

var _ Runner = Local{}
