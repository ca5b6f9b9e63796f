package docker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/airflow-dev/internal/model"
)

func TestDetectUnixSocket(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "missing.sock")
	second := filepath.Join(dir, "docker.sock")
	require.NoError(t, os.WriteFile(second, nil, 0o600))

	host, err := detectUnixSocket([]string{first, second})
	require.NoError(t, err)
	assert.Equal(t, "unix://"+second, host)

	_, err = detectUnixSocket([]string{first})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Docker socket not found")
}

func TestDetectDockerHost_UnsupportedPlatform(t *testing.T) {
	_, err := detectDockerHost("plan9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported platform")
}

func TestNewClient_UsesDockerHost(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://127.0.0.1:2375")

	c, err := NewClient()
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.NotNil(t, c.inner)
}

func TestNewClient_InvalidDockerHost(t *testing.T) {
	t.Setenv("DOCKER_HOST", "not-a-docker-host")

	_, err := NewClient()
	require.Error(t, err)
	assert.Equal(t, model.ExitDockerNotRunning, model.ExitCodeOf(err))
}
