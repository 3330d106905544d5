package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atilaneves/flycheck/internal/command"
	deployerrors "github.com/atilaneves/flycheck/internal/errors"
)

// Response scripts the outcome of a command run through FakeRunner.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err replaces the error FakeRunner would build from ExitCode.
	Err error
	// OnRun is called before the response is returned, for side effects such
	// as creating files the real tool would write. A non-nil error is returned
	// from Run as is.
	OnRun func(cmd command.Command) error
}

type scripted struct {
	prefix    string
	responses []Response
}

// FakeRunner is a command.Runner that records every invocation and answers
// from scripted responses. Unscripted commands succeed with empty output.
type FakeRunner struct {
	mu      sync.Mutex
	calls   []command.Command
	scripts []*scripted
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On scripts responses for commands whose line ("name arg1 arg2 ...") starts
// with prefix. Responses are consumed in order; the last one repeats. When
// several prefixes match, the longest wins.
func (f *FakeRunner) On(prefix string, responses ...Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(responses) == 0 {
		responses = []Response{{}}
	}
	f.scripts = append(f.scripts, &scripted{prefix: prefix, responses: responses})
	return f
}

// Fail scripts a non-zero exit for commands starting with prefix.
func (f *FakeRunner) Fail(prefix string, exitCode int, stderr string) *FakeRunner {
	return f.On(prefix, Response{ExitCode: exitCode, Stderr: stderr})
}

// Run implements command.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd command.Command) (*command.Result, error) {
	if err := ctx.Err(); err != nil {
		return &command.Result{ExitCode: -1}, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	resp := f.next(Line(cmd))
	f.mu.Unlock()

	if resp.OnRun != nil {
		if err := resp.OnRun(cmd); err != nil {
			return &command.Result{ExitCode: -1}, err
		}
	}

	result := &command.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return result, resp.Err
	}
	if resp.ExitCode != 0 {
		return result, fmt.Errorf("%s failed (exit %d): %s: %w",
			cmd.Name, resp.ExitCode, strings.TrimSpace(resp.Stderr), deployerrors.ErrCommandFailed)
	}
	return result, nil
}

// next pops the response for line. Caller holds f.mu.
func (f *FakeRunner) next(line string) Response {
	var best *scripted
	for _, s := range f.scripts {
		if strings.HasPrefix(line, s.prefix) && (best == nil || len(s.prefix) > len(best.prefix)) {
			best = s
		}
	}
	if best == nil {
		return Response{}
	}
	resp := best.responses[0]
	if len(best.responses) > 1 {
		best.responses = best.responses[1:]
	}
	return resp
}

// Calls returns a copy of the recorded commands.
func (f *FakeRunner) Calls() []command.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]command.Command(nil), f.calls...)
}

// Lines returns the recorded command lines, unredacted.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = Line(c)
	}
	return lines
}

// Index returns the position of the first recorded command starting with prefix, or -1.
func (f *FakeRunner) Index(prefix string) int {
	for i, line := range f.Lines() {
		if strings.HasPrefix(line, prefix) {
			return i
		}
	}
	return -1
}

// Called reports whether any recorded command starts with prefix.
func (f *FakeRunner) Called(prefix string) bool {
	return f.Index(prefix) >= 0
}

// Line renders cmd as "name arg1 arg2 ..." without redaction.
func Line(cmd command.Command) string {
	return strings.Join(append([]string{cmd.Name}, cmd.Args...), " ")
}

var _ command.Runner = (*FakeRunner)(nil)
