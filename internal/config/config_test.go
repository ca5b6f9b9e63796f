package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadIn loads a Config with project-dir pointed at dir.
func loadIn(t *testing.T, dir string, configFile string) (*Config, error) {
	t.Helper()
	t.Setenv("AIRFLOW_DEV_PROJECT_DIR", dir)
	return NewLoader().Load(configFile)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadIn(t, dir, "")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Empty(t, cfg.ComposeFile)
	assert.Equal(t, filepath.Join("..", "requirements.txt"), cfg.Requirements)
	assert.True(t, cfg.ManageVenv)
	assert.Equal(t, filepath.Join("..", ".venv"), cfg.VenvDir)
	assert.Equal(t, filepath.Join("airflow", "logs"), cfg.LogsDir)
	assert.Equal(t, filepath.Join("airflow", "plugins"), cfg.PluginsDir)
	assert.Equal(t, "_PIP_ADDITIONAL_REQUIREMENTS", cfg.RequirementsEnv)
	assert.Equal(t, "AIRFLOW_UID", cfg.UIDEnv)
	assert.Equal(t, "50000", cfg.WindowsUID)
	assert.Equal(t, "postgres", cfg.DBService)
	assert.Equal(t, "postgres-db-volume", cfg.DBVolumeKey)
	assert.Empty(t, cfg.DBContainer)
	assert.Empty(t, cfg.DBVolume)
	assert.Equal(t, RuntimeCLI, cfg.Runtime)
	assert.Equal(t, "docker", cfg.DockerBin)
	assert.False(t, cfg.DryRun)
	assert.Empty(t, cfg.File)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AIRFLOW_DEV_RUNTIME", "API")
	t.Setenv("AIRFLOW_DEV_DB_CONTAINER", "custom-db")
	t.Setenv("AIRFLOW_DEV_NO_VENV", "true")

	cfg, err := loadIn(t, dir, "")
	require.NoError(t, err)

	assert.Equal(t, RuntimeAPI, cfg.Runtime)
	assert.Equal(t, "custom-db", cfg.DBContainer)
	assert.False(t, cfg.ManageVenv)
}

func TestLoad_YAMLFileInProjectDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".airflow-dev.yaml"), `
db-service: metadata-db
db-volume-key: metadata-volume
logs-dir: logs
`)

	cfg, err := loadIn(t, dir, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".airflow-dev.yaml"), cfg.File)
	assert.Equal(t, "metadata-db", cfg.DBService)
	assert.Equal(t, "metadata-volume", cfg.DBVolumeKey)
	assert.Equal(t, "logs", cfg.LogsDir)
}

func TestLoad_JSONCFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.jsonc")
	writeFile(t, path, `{
  // local overrides
  "runtime": "api",
  "docker-bin": "podman", /* compatible CLI */
  "windows-uid": "1000",
}`)

	cfg, err := loadIn(t, dir, path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, RuntimeAPI, cfg.Runtime)
	assert.Equal(t, "podman", cfg.DockerBin)
	assert.Equal(t, "1000", cfg.WindowsUID)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".airflow-dev.yaml"), "runtime: api\n")
	t.Setenv("AIRFLOW_DEV_RUNTIME", "cli")

	cfg, err := loadIn(t, dir, "")
	require.NoError(t, err)
	assert.Equal(t, RuntimeCLI, cfg.Runtime)
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AIRFLOW_DEV_PROJECT_DIR", dir)
	t.Setenv("AIRFLOW_DEV_RUNTIME", "api")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("runtime", "", "")
	fs.Bool("dry-run", false, "")
	fs.Bool("reset", false, "")
	require.NoError(t, fs.Parse([]string{"--runtime=cli", "--dry-run"}))

	l := NewLoader()
	require.NoError(t, l.BindFlags(fs))

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, RuntimeCLI, cfg.Runtime)
	assert.True(t, cfg.DryRun)
}

func TestLoad_UnsetFlagKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AIRFLOW_DEV_PROJECT_DIR", dir)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("runtime", "", "")
	require.NoError(t, fs.Parse(nil))

	l := NewLoader()
	require.NoError(t, l.BindFlags(fs))

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, RuntimeCLI, cfg.Runtime)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := t.TempDir()

	_, err := loadIn(t, dir, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		return Config{
			ProjectDir:      ".",
			Requirements:    "../requirements.txt",
			ManageVenv:      true,
			VenvDir:         "../.venv",
			LogsDir:         "airflow/logs",
			PluginsDir:      "airflow/plugins",
			RequirementsEnv: "_PIP_ADDITIONAL_REQUIREMENTS",
			UIDEnv:          "AIRFLOW_UID",
			DBService:       "postgres",
			DBVolumeKey:     "postgres-db-volume",
			Runtime:         RuntimeCLI,
			DockerBin:       "docker",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "api runtime", mutate: func(c *Config) { c.Runtime = RuntimeAPI }},
		{name: "invalid runtime", mutate: func(c *Config) { c.Runtime = "podman" }, wantErr: "invalid runtime"},
		{name: "empty uid env", mutate: func(c *Config) { c.UIDEnv = "" }, wantErr: "uid-env must not be empty"},
		{name: "empty venv dir", mutate: func(c *Config) { c.VenvDir = "" }, wantErr: "venv-dir must not be empty"},
		{name: "empty venv dir without venv", mutate: func(c *Config) { c.VenvDir = ""; c.ManageVenv = false }},
		{
			name:    "no db container source",
			mutate:  func(c *Config) { c.DBService = "" },
			wantErr: "one of db-container or db-service",
		},
		{
			name:   "explicit db names",
			mutate: func(c *Config) { c.DBService = ""; c.DBVolumeKey = ""; c.DBContainer = "db"; c.DBVolume = "vol" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Path(t *testing.T) {
	c := &Config{ProjectDir: filepath.Join("srv", "airflow")}
	assert.Equal(t, filepath.Join("srv", "airflow", "airflow", "logs"), c.Path(filepath.Join("airflow", "logs")))
	assert.Equal(t, filepath.Join("srv", "requirements.txt"), c.Path(filepath.Join("..", "requirements.txt")))

	abs, err := filepath.Abs("requirements.txt")
	require.NoError(t, err)
	assert.Equal(t, abs, c.Path(abs))
}
