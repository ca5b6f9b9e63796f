package venv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/airflow-dev/internal/execx/execxtest"
	"github.com/mmr-tortoise/airflow-dev/internal/model"
	"github.com/mmr-tortoise/airflow-dev/internal/platform"
)

// newTestManager returns a Manager over a fresh temp dir with no shell
// venv active and no python on PATH.
func newTestManager(t *testing.T, fake *execxtest.FakeRunner) *Manager {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".venv")
	m := NewManager(fake, platform.Host{GOOS: "linux"}, nil, dir)
	m.getenv = func(string) string { return "" }
	m.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	return m
}

func TestInit_CreatesMissingEnvironment(t *testing.T) {
	fake := &execxtest.FakeRunner{}
	m := newTestManager(t, fake)
	py := filepath.Join(m.Dir, "bin", "python3")

	require.NoError(t, m.Init(context.Background(), false, "requirements.txt"))

	assert.Equal(t, []string{
		"python3 -m venv " + m.Dir,
		py + " -m pip install --upgrade pip",
		py + " -m pip install -r requirements.txt",
	}, fake.Commands())
}

func TestInit_ExistingEnvironmentOnlyInstalls(t *testing.T) {
	fake := &execxtest.FakeRunner{}
	m := newTestManager(t, fake)
	require.NoError(t, os.MkdirAll(m.Dir, 0o755))

	require.NoError(t, m.Init(context.Background(), false, "requirements.txt"))

	assert.Equal(t, []string{
		filepath.Join(m.Dir, "bin", "python3") + " -m pip install -r requirements.txt",
	}, fake.Commands())
}

func TestInit_ResetDeletesAndRecreates(t *testing.T) {
	fake := &execxtest.FakeRunner{}
	m := newTestManager(t, fake)
	stale := filepath.Join(m.Dir, "stale.txt")
	require.NoError(t, os.MkdirAll(m.Dir, 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	require.NoError(t, m.Init(context.Background(), true, "requirements.txt"))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "reset should delete the previous environment")
	assert.Equal(t, 1, fake.CountPrefix("python3 -m venv"))
	assert.Len(t, fake.Commands(), 3)
}

func TestInit_DryRunKeepsEnvironment(t *testing.T) {
	fake := &execxtest.FakeRunner{}
	m := newTestManager(t, fake)
	m.DryRun = true
	require.NoError(t, os.MkdirAll(m.Dir, 0o755))

	require.NoError(t, m.Init(context.Background(), true, "requirements.txt"))

	assert.True(t, m.Exists())
}

func TestInit_FailureExitsWithCommandStatus(t *testing.T) {
	fake := (&execxtest.FakeRunner{}).
		On("python3 -m venv", execxtest.Response{Code: 2})
	m := newTestManager(t, fake)

	err := m.Init(context.Background(), false, "requirements.txt")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitCode(2), cliErr.Code)
	assert.True(t, cliErr.Silent())
	assert.Len(t, fake.Commands(), 1, "nothing runs after a failed command")
}

func TestInit_PipFailure(t *testing.T) {
	m := newTestManager(t, nil)
	fake := (&execxtest.FakeRunner{}).
		On(filepath.Join(m.Dir, "bin", "python3")+" -m pip install -r", execxtest.Response{Code: 1})
	m.runner = fake
	require.NoError(t, os.MkdirAll(m.Dir, 0o755))

	err := m.Init(context.Background(), false, "requirements.txt")
	assert.Equal(t, model.ExitCode(1), model.ExitCodeOf(err))
}

func TestInit_RefusesInsideEnvironment(t *testing.T) {
	t.Run("activated in shell", func(t *testing.T) {
		fake := &execxtest.FakeRunner{}
		m := newTestManager(t, fake)
		m.getenv = func(k string) string {
			if k == "VIRTUAL_ENV" {
				return m.Dir
			}
			return ""
		}

		err := m.Init(context.Background(), false, "requirements.txt")
		require.Error(t, err)
		assert.Equal(t, model.ExitGeneralError, model.ExitCodeOf(err))
		assert.Contains(t, err.Error(), "global python interpreter")
		assert.Empty(t, fake.Commands())
	})

	t.Run("venv python first on PATH", func(t *testing.T) {
		fake := &execxtest.FakeRunner{}
		m := newTestManager(t, fake)
		m.lookPath = func(name string) (string, error) {
			return filepath.Join(m.Dir, "bin", name), nil
		}

		err := m.Init(context.Background(), false, "requirements.txt")
		require.Error(t, err)
		assert.Empty(t, fake.Commands())
	})

	t.Run("other virtualenv is fine", func(t *testing.T) {
		fake := &execxtest.FakeRunner{}
		m := newTestManager(t, fake)
		m.getenv = func(string) string { return filepath.Join(t.TempDir(), "other") }

		require.NoError(t, m.Init(context.Background(), false, "requirements.txt"))
	})
}

func TestManager_WindowsPaths(t *testing.T) {
	m := NewManager(&execxtest.FakeRunner{}, platform.Host{GOOS: "windows"}, nil, ".venv")
	assert.Equal(t, "python.exe", m.Interpreter())
	assert.Equal(t, filepath.Join(".venv", "Scripts", "python.exe"), m.VenvPython())

	m.Python = "py"
	assert.Equal(t, "py", m.Interpreter())
}
