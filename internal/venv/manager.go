package venv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mmr-tortoise/airflow-dev/internal/execx"
	"github.com/mmr-tortoise/airflow-dev/internal/model"
	"github.com/mmr-tortoise/airflow-dev/internal/platform"
	"github.com/mmr-tortoise/airflow-dev/internal/ui"
)

// Manager creates, resets and populates one virtual environment.
type Manager struct {
	// Dir is the virtual environment directory.
	Dir string

	// Python overrides the global interpreter. Empty selects the
	// platform default (python3, or python.exe on Windows).
	Python string

	// DryRun prints the deletion of Dir instead of performing it.
	// Commands are expected to go through an execx.DryRunner as well.
	DryRun bool

	runner   execx.Runner
	host     platform.Host
	printer  *ui.Printer
	getenv   func(string) string
	lookPath func(string) (string, error)
}

// NewManager returns a Manager for the environment at dir.
func NewManager(runner execx.Runner, host platform.Host, printer *ui.Printer, dir string) *Manager {
	return &Manager{
		Dir:      dir,
		runner:   runner,
		host:     host,
		printer:  printer,
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
	}
}

// Interpreter returns the global interpreter used to create the env.
func (m *Manager) Interpreter() string {
	if m.Python != "" {
		return m.Python
	}
	return m.host.Python()
}

// VenvPython returns the interpreter inside the environment.
func (m *Manager) VenvPython() string {
	return m.host.VenvPython(m.Dir)
}

// Active reports whether the environment is the one currently in use:
// either it is activated in the calling shell (VIRTUAL_ENV), or the
// global interpreter name resolves through PATH to its bin directory.
// Bootstrapping from inside the environment would rebuild it with its own
// interpreter and leave it broken.
func (m *Manager) Active() bool {
	if venv := m.getenv("VIRTUAL_ENV"); venv != "" && samePath(venv, m.Dir) {
		return true
	}
	found, err := m.lookPath(m.Interpreter())
	if err != nil {
		return false
	}
	// <venv>/bin/python3 → <venv>
	return samePath(filepath.Dir(filepath.Dir(found)), m.Dir)
}

// Exists reports whether the environment directory is present.
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.Dir)
	return err == nil && info.IsDir()
}

// Init makes the environment ready:
//  1. refuse to run from inside the environment
//  2. on reset, delete an existing environment
//  3. if missing, create it and upgrade pip
//  4. install requirements
func (m *Manager) Init(ctx context.Context, reset bool, requirements string) error {
	if m.Active() {
		return model.NewCLIError(model.ExitGeneralError,
			"this command must be run with the global python interpreter, not the one in the virtual environment")
	}

	exists := m.Exists()

	if reset && exists {
		m.printer.Step("Deleting existing virtual environment...")
		if err := m.remove(); err != nil {
			return err
		}
		exists = false
	}

	if !exists {
		m.printer.Step("Creating virtual environment...")
		if err := m.run(ctx, m.Interpreter(), "-m", "venv", m.Dir); err != nil {
			return err
		}
		if err := m.run(ctx, m.VenvPython(), "-m", "pip", "install", "--upgrade", "pip"); err != nil {
			return err
		}
	}

	return m.run(ctx, m.VenvPython(), "-m", "pip", "install", "-r", requirements)
}

func (m *Manager) remove() error {
	if m.DryRun {
		m.printer.Step("+ rm -rf %s", m.Dir)
		return nil
	}
	if err := os.RemoveAll(m.Dir); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to delete virtual environment %s", m.Dir), err)
	}
	return nil
}

// run executes one command and converts a non-zero exit into a bare exit
// status carrying the same code.
func (m *Manager) run(ctx context.Context, name string, args ...string) error {
	res := m.runner.Run(ctx, execx.Command{Name: name, Args: args})
	if !res.OK() {
		return model.NewExitStatus(res.Code)
	}
	return nil
}

// samePath compares two paths after making them absolute and cleaning
// them. Symlinks are resolved when possible.
func samePath(a, b string) bool {
	return canonical(a) == canonical(b)
}

func canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
