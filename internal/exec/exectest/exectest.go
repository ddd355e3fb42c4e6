// Package exectest provides a Runner that records commands instead of
// running them.
package exectest

import (
	"context"
	"sync"

	"github.com/ARU-life-sciences/rep/internal/exec"
)

// HandlerFunc stands in for a tool. It may write the files the tool
// would have written and returns what the tool's exit would have been.
type HandlerFunc func(c exec.Command) error

// Recorder is an exec.Runner for tests. Commands are recorded in order
// and dispatched to the handler registered for their Name, if any.
// Unhandled commands succeed.
type Recorder struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	commands []exec.Command
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{handlers: map[string]HandlerFunc{}}
}

// Handle registers fn for commands named name.
func (r *Recorder) Handle(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Fail makes every command named name exit with status 1.
func (r *Recorder) Fail(name string) {
	r.Handle(name, func(c exec.Command) error {
		return &exec.ToolError{Tool: c.Name, ExitCode: 1}
	})
}

// Run records c and calls its handler.
func (r *Recorder) Run(ctx context.Context, c exec.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.commands = append(r.commands, c)
	fn := r.handlers[c.Name]
	r.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(c)
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []exec.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]exec.Command(nil), r.commands...)
}

// Named returns the recorded commands named name.
func (r *Recorder) Named(name string) []exec.Command {
	var named []exec.Command
	for _, c := range r.Commands() {
		if c.Name == name {
			named = append(named, c)
		}
	}
	return named
}
