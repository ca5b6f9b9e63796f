// Package config provides configuration management for the airflow-dev CLI.
//
// Viper stays contained in this package and the rest of the codebase
// receives an explicit Config struct. Sources are resolved in this order:
// flags > env (AIRFLOW_DEV_*) > config file > defaults.
//
// Config files are looked up in the project directory as
// .airflow-dev.yaml, .airflow-dev.yml, .airflow-dev.json or
// .airflow-dev.jsonc. JSON files may carry comments and trailing commas.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
)

// EnvPrefix is prepended to every configuration key when it is read from
// the environment, e.g. AIRFLOW_DEV_RUNTIME.
const EnvPrefix = "AIRFLOW_DEV"

// Runtime backends for container/volume queries and removal.
const (
	RuntimeCLI = "cli"
	RuntimeAPI = "api"
)

// configBaseName is the file name (without extension) searched for in the
// project directory.
const configBaseName = ".airflow-dev"

// Config is the explicit configuration struct.
// This is what the rest of the codebase sees.
type Config struct {
	// ProjectDir is the compose project directory. Every relative path
	// below is resolved against it.
	ProjectDir string

	// ComposeFile is the compose file inspected for project and DB names.
	// Empty uses the file compose itself would pick in ProjectDir.
	ComposeFile string

	// Requirements is the dependency manifest installed into the venv and
	// forwarded to the containers.
	Requirements string

	// ManageVenv enables virtual-environment initialization.
	ManageVenv bool

	// VenvDir is the managed virtual environment.
	VenvDir string

	// Python overrides the global interpreter used to create the venv.
	// Empty selects python3 (python.exe on Windows).
	Python string

	LogsDir    string
	PluginsDir string

	// RequirementsEnv receives the full manifest text.
	RequirementsEnv string

	// UIDEnv receives the user id containers run as.
	UIDEnv string

	// WindowsUID is exported as UIDEnv on Windows.
	WindowsUID string

	// DBService and DBVolumeKey name the database service and its volume
	// in the compose file. The real container and volume names are
	// derived from them unless DBContainer / DBVolume are set.
	DBService   string
	DBVolumeKey string
	DBContainer string
	DBVolume    string

	// Runtime selects the container runtime backend: "cli" or "api".
	Runtime string

	// DockerBin is the docker executable used by the cli backend and for
	// docker compose.
	DockerBin string

	DryRun  bool
	Verbose bool

	// File is the config file that was read, empty when none was found.
	File string
}

// Loader resolves a Config from flags, environment, config file and
// defaults. Each Loader owns its own viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with defaults and environment binding set up.
func NewLoader() *Loader {
	v := viper.New()

	v.SetDefault("project-dir", ".")
	v.SetDefault("compose-file", "")
	v.SetDefault("requirements", filepath.Join("..", "requirements.txt"))
	v.SetDefault("no-venv", false)
	v.SetDefault("venv-dir", filepath.Join("..", ".venv"))
	v.SetDefault("python", "")
	v.SetDefault("logs-dir", filepath.Join("airflow", "logs"))
	v.SetDefault("plugins-dir", filepath.Join("airflow", "plugins"))
	v.SetDefault("requirements-env", "_PIP_ADDITIONAL_REQUIREMENTS")
	v.SetDefault("uid-env", "AIRFLOW_UID")
	v.SetDefault("windows-uid", "50000")
	v.SetDefault("db-service", "postgres")
	v.SetDefault("db-volume-key", "postgres-db-volume")
	v.SetDefault("db-container", "")
	v.SetDefault("db-volume", "")
	v.SetDefault("runtime", RuntimeCLI)
	v.SetDefault("docker-bin", "docker")
	v.SetDefault("dry-run", false)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlags binds every flag in fs whose name is a configuration key, so
// an explicitly set flag overrides env and file values.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || !l.isKey(f.Name) {
			return
		}
		bindErr = l.v.BindPFlag(f.Name, f)
	})
	return bindErr
}

func (l *Loader) isKey(name string) bool {
	for _, k := range l.v.AllKeys() {
		if k == name {
			return true
		}
	}
	return false
}

// Load reads the config file (explicit path, or searched for in the
// project directory) and returns the validated Config.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = findConfigFile(l.v.GetString("project-dir"))
	}
	if configFile != "" {
		if err := l.readFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		ProjectDir:      l.v.GetString("project-dir"),
		ComposeFile:     l.v.GetString("compose-file"),
		Requirements:    l.v.GetString("requirements"),
		ManageVenv:      !l.v.GetBool("no-venv"),
		VenvDir:         l.v.GetString("venv-dir"),
		Python:          l.v.GetString("python"),
		LogsDir:         l.v.GetString("logs-dir"),
		PluginsDir:      l.v.GetString("plugins-dir"),
		RequirementsEnv: l.v.GetString("requirements-env"),
		UIDEnv:          l.v.GetString("uid-env"),
		WindowsUID:      l.v.GetString("windows-uid"),
		DBService:       l.v.GetString("db-service"),
		DBVolumeKey:     l.v.GetString("db-volume-key"),
		DBContainer:     l.v.GetString("db-container"),
		DBVolume:        l.v.GetString("db-volume"),
		Runtime:         strings.ToLower(l.v.GetString("runtime")),
		DockerBin:       l.v.GetString("docker-bin"),
		DryRun:          l.v.GetBool("dry-run"),
		Verbose:         l.v.GetBool("verbose"),
		File:            configFile,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readFile merges a config file into the viper instance. JSON and JSONC
// files are stripped of comments first.
func (l *Loader) readFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" || ext == ".jsonc" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		l.v.SetConfigType("json")
		if err := l.v.ReadConfig(bytes.NewReader(jsonc.ToJSON(data))); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return nil
	}

	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// findConfigFile returns the first existing .airflow-dev.* file in dir.
func findConfigFile(dir string) string {
	for _, ext := range []string{".yaml", ".yml", ".json", ".jsonc"} {
		path := filepath.Join(dir, configBaseName+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Validate ensures config is sane.
func (c *Config) Validate() error {
	var errs []error

	if c.Runtime != RuntimeCLI && c.Runtime != RuntimeAPI {
		errs = append(errs, fmt.Errorf("invalid runtime: %q (must be %s or %s)", c.Runtime, RuntimeCLI, RuntimeAPI))
	}

	required := []struct{ key, value string }{
		{"project-dir", c.ProjectDir},
		{"requirements", c.Requirements},
		{"logs-dir", c.LogsDir},
		{"plugins-dir", c.PluginsDir},
		{"requirements-env", c.RequirementsEnv},
		{"uid-env", c.UIDEnv},
		{"docker-bin", c.DockerBin},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", r.key))
		}
	}

	if c.ManageVenv && strings.TrimSpace(c.VenvDir) == "" {
		errs = append(errs, errors.New("venv-dir must not be empty when the virtual environment is managed"))
	}
	if c.DBContainer == "" && c.DBService == "" {
		errs = append(errs, errors.New("one of db-container or db-service must be set"))
	}
	if c.DBVolume == "" && c.DBVolumeKey == "" {
		errs = append(errs, errors.New("one of db-volume or db-volume-key must be set"))
	}

	return errors.Join(errs...)
}

// Path resolves p against the project directory.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}
