package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Command describes one external program invocation.
type Command struct {
	// Name is the program to run, resolved through PATH.
	Name string

	// Args are passed to the program verbatim.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment. Later entries win over inherited ones.
	Env []string
}

// String renders the command the way a user would type it.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the outcome of a command. Code is the process exit status;
// Err is non-nil whenever Code is non-zero and carries the cause
// (*exec.ExitError, or a start failure such as a missing binary).
type Result struct {
	Code int
	Err  error
}

// OK reports whether the command exited with status 0.
func (r Result) OK() bool {
	return r.Code == 0
}

// Runner issues commands and reports their exit status.
type Runner interface {
	// Run executes the command with stdio attached to the terminal.
	Run(ctx context.Context, c Command) Result

	// Capture executes the command and returns its stdout.
	Capture(ctx context.Context, c Command) (string, Result)
}

// OSRunner runs commands as real child processes.
type OSRunner struct {
	// Stdin, Stdout and Stderr are attached to commands started by Run.
	// Nil values fall back to the process's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Log receives a debug entry for every command. Nil disables logging.
	Log logrus.FieldLogger
}

// NewOSRunner returns an OSRunner wired to the process's stdio.
func NewOSRunner(log logrus.FieldLogger) *OSRunner {
	return &OSRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Log: log}
}

// Run implements Runner.
func (r *OSRunner) Run(ctx context.Context, c Command) Result {
	cmd := r.command(ctx, c)
	cmd.Stdin = orReader(r.Stdin, os.Stdin)
	cmd.Stdout = orWriter(r.Stdout, os.Stdout)
	cmd.Stderr = orWriter(r.Stderr, os.Stderr)
	return resultOf(ctx, cmd.Run())
}

// Capture implements Runner. Stderr of the child is still streamed to the
// runner's Stderr so diagnostics stay visible.
func (r *OSRunner) Capture(ctx context.Context, c Command) (string, Result) {
	cmd := r.command(ctx, c)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = orWriter(r.Stderr, os.Stderr)
	res := resultOf(ctx, cmd.Run())
	return out.String(), res
}

func (r *OSRunner) command(ctx context.Context, c Command) *exec.Cmd {
	if r.Log != nil {
		r.Log.WithField("dir", c.Dir).Debugf("+ %s", c)
	}
	// #nosec G204 -- commands are built internally from configuration
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

// resultOf converts the error from exec.Cmd.Run into a Result.
func resultOf(ctx context.Context, err error) Result {
	if err == nil {
		return Result{}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return Result{Code: exitErr.ExitCode(), Err: err}
	}
	if ctx.Err() != nil {
		return Result{Code: 130, Err: fmt.Errorf("%w: %v", ctx.Err(), err)}
	}
	// Binary not found, permission denied, or killed by a signal.
	return Result{Code: 1, Err: err}
}

func orReader(r io.Reader, fallback io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return fallback
}

func orWriter(w io.Writer, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

// DryRunner prints commands instead of running them. Every command
// succeeds and Capture returns empty output.
type DryRunner struct {
	Out io.Writer
}

// Run implements Runner.
func (d *DryRunner) Run(_ context.Context, c Command) Result {
	d.print(c)
	return Result{}
}

// Capture implements Runner.
func (d *DryRunner) Capture(_ context.Context, c Command) (string, Result) {
	d.print(c)
	return "", Result{}
}

func (d *DryRunner) print(c Command) {
	prefix := "+ "
	if c.Dir != "" {
		prefix = fmt.Sprintf("+ (cd %s) ", c.Dir)
	}
	fmt.Fprintln(orWriter(d.Out, os.Stderr), prefix+c.String())
}
