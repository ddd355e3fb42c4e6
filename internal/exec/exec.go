// Package exec runs the external executables of the pipeline.
//
// Tools are modelled as a capability: a name, a working directory and an
// argument list go in, an exit status comes out. Runner is the seam that
// lets the pipeline be tested without any of the tools installed (see
// exectest).
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	osexec "os/exec"
	"strings"
	"time"

	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("exec")

// ErrTimeout is returned when a tool outlives its time budget.
var ErrTimeout = errors.New("timed out")

// Command is a single invocation of an external tool.
type Command struct {
	// Name is the executable, a bare name resolved on PATH or a path
	Name string

	// Dir is the working directory, the caller's when empty
	Dir string

	// Args are passed verbatim, without a shell
	Args []string

	// Stdout receives the tool's standard output when set
	Stdout io.Writer

	// Stderr receives the tool's standard error when set
	Stderr io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner runs a Command to completion. A nil error means a zero exit status.
type Runner interface {
	Run(ctx context.Context, c Command) error
}

// ToolError is a tool that ran but exited with a non-zero status.
type ToolError struct {
	// Tool that failed
	Tool string

	// ExitCode of the process, -1 if it was killed by a signal
	ExitCode int

	// Output is the tail of what the tool wrote that wasn't redirected
	Output string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Local runs commands as child processes of rep.
type Local struct {
	// Timeout bounds each command. Zero means no limit.
	Timeout time.Duration
}

const (
	// maxOutput bounds how much captured output is kept on a ToolError.
	maxOutput = 4096

	// waitDelay is how long output pipes may stay open after a kill.
	waitDelay = time.Second
)

// Run executes c and waits on it to finish.
func (l Local) Run(ctx context.Context, c Command) error {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay

	// whatever isn't redirected is captured for the error message
	var captured bytes.Buffer
	cmd.Stdout = &captured
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	cmd.Stderr = &captured
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}

	log.Debugf("running %s (dir %q)", c, c.Dir)
	start := time.Now()
	err := cmd.Run()
	log.Debugf("%s finished in %s", c.Name, time.Since(start).Round(time.Millisecond))

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s %w after %s", c.Name, ErrTimeout, l.Timeout)
		}
		return fmt.Errorf("%s: %w", c.Name, ctxErr)
	}

	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		return &ToolError{
			Tool:     c.Name,
			ExitCode: exitErr.ExitCode(),
			Output:   tail(captured.String(), maxOutput),
		}
	}
	if err != nil {
		return fmt.Errorf("failed to execute %s: %w", c.Name, err)
	}

	return nil
}

// Location is where an executable was found on PATH, if it was.
type Location struct {
	Name string
	Path string
}

// Found is true if the executable was found.
func (l Location) Found() bool {
	return l.Path != ""
}

// Locate looks up each executable in names.
func Locate(names ...string) []Location {
	locs := make([]Location, len(names))
	for i, name := range names {
		locs[i].Name = name
		if path, err := osexec.LookPath(name); err == nil {
			locs[i].Path = path
		}
	}
	return locs
}

// Check makes sure every executable in names can be found.
func Check(names ...string) error {
	var missing []string
	for _, l := range Locate(names...) {
		if !l.Found() {
			log.Errorf("%s not found", l.Name)
			missing = append(missing, l.Name)
			continue
		}
		log.Debugf("%s found at %s", l.Name, l.Path)
	}

	if len(missing) > 0 {
		return fmt.Errorf("executables not found on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}

// tail keeps the last n bytes of s.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
