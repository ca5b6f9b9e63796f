// Package execxtest provides a scripted execx.Runner for tests.
package execxtest

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/mmr-tortoise/airflow-dev/internal/execx"
)

// Response is the scripted outcome of a matching command.
type Response struct {
	Code   int
	Stdout string
	Err    error
}

// FakeRunner records every command and answers from a table of responses
// keyed by command-line prefix. Commands with no matching entry succeed
// with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	responses []scripted
	Calls     []execx.Command
}

type scripted struct {
	prefix string
	resp   Response
}

// On registers a response for every command whose String() starts with
// prefix. Later registrations take precedence.
func (f *FakeRunner) On(prefix string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, scripted{prefix: prefix, resp: resp})
	return f
}

// Run implements execx.Runner.
func (f *FakeRunner) Run(_ context.Context, c execx.Command) execx.Result {
	resp := f.record(c)
	return execx.Result{Code: resp.Code, Err: resp.Err}
}

// Capture implements execx.Runner.
func (f *FakeRunner) Capture(_ context.Context, c execx.Command) (string, execx.Result) {
	resp := f.record(c)
	return resp.Stdout, execx.Result{Code: resp.Code, Err: resp.Err}
}

func (f *FakeRunner) record(c execx.Command) Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
	line := c.String()
	for i := len(f.responses) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.responses[i].prefix) {
			resp := f.responses[i].resp
			if resp.Code != 0 && resp.Err == nil {
				resp.Err = &exitError{code: resp.Code}
			}
			return resp
		}
	}
	return Response{}
}

// Commands returns the recorded command lines.
func (f *FakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	return lines
}

// CountPrefix returns how many recorded commands start with prefix.
func (f *FakeRunner) CountPrefix(prefix string) int {
	n := 0
	for _, line := range f.Commands() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

type exitError struct{ code int }

func (e *exitError) Error() string {
	return "exit status " + strconv.Itoa(e.code)
}
