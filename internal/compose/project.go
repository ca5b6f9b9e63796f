package compose

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// ProjectNameEnv is the variable compose consults when the compose file
// has no top-level name.
const ProjectNameEnv = "COMPOSE_PROJECT_NAME"

// File is the subset of a compose file this package reads.
type File struct {
	Name     string             `yaml:"name"`
	Services map[string]Service `yaml:"services"`
	Volumes  map[string]*Volume `yaml:"volumes"`
}

// Service is the subset of a compose service definition this package reads.
type Service struct {
	ContainerName string `yaml:"container_name"`
}

// Volume is the subset of a top-level volume definition this package reads.
// Volumes declared with an empty body (`postgres-db-volume:`) decode as nil.
type Volume struct {
	Name     string `yaml:"name"`
	External bool   `yaml:"external"`
}

// Project is a compose file resolved against its project directory.
type Project struct {
	// Name is the effective compose project name.
	Name string

	// Dir is the project directory.
	Dir string

	// File is the parsed compose file. Empty when no file was found.
	File File

	// Path is the compose file that was read, empty when none exists.
	Path string
}

// DotEnvFile is the file in the project directory compose reads project
// variables from.
const DotEnvFile = ".env"

// DefaultFiles are the file names compose looks for in the project
// directory, in order, when no file is given.
var DefaultFiles = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// Load reads composePath (relative to dir unless absolute) and resolves the
// project name. An empty composePath picks the first of DefaultFiles present
// in dir. A missing compose file is not an error: names are then derived
// from the directory alone. getenv is consulted for COMPOSE_PROJECT_NAME;
// nil uses os.Getenv.
func Load(dir, composePath string, getenv func(string) string) (*Project, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if composePath == "" {
		composePath = findDefaultFile(dir)
	} else if !filepath.IsAbs(composePath) {
		composePath = filepath.Join(dir, composePath)
	}

	p := &Project{Dir: dir}

	if composePath != "" {
		data, err := os.ReadFile(composePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &p.File); err != nil {
				return nil, fmt.Errorf("failed to parse compose file %s: %w", composePath, err)
			}
			p.Path = composePath
		case errors.Is(err, os.ErrNotExist):
			// Leave the file empty and derive names from the directory.
		default:
			return nil, fmt.Errorf("failed to read compose file %s: %w", composePath, err)
		}
	}

	fromEnv := getenv(ProjectNameEnv)
	if fromEnv == "" {
		env, err := readDotEnv(dir)
		if err != nil {
			return nil, err
		}
		fromEnv = env[ProjectNameEnv]
	}

	name, err := projectName(fromEnv, p.File.Name, dir)
	if err != nil {
		return nil, err
	}
	p.Name = name
	return p, nil
}

// ContainerName returns the name of the first container compose creates
// for service.
func (p *Project) ContainerName(service string) string {
	if svc, ok := p.File.Services[service]; ok && svc.ContainerName != "" {
		return svc.ContainerName
	}
	return fmt.Sprintf("%s-%s-1", p.Name, service)
}

// VolumeName returns the docker volume name compose uses for the named
// volume declared under key.
func (p *Project) VolumeName(key string) string {
	if vol, ok := p.File.Volumes[key]; ok && vol != nil {
		if vol.Name != "" {
			return vol.Name
		}
		if vol.External {
			return key
		}
	}
	return fmt.Sprintf("%s_%s", p.Name, key)
}

// HasService reports whether the compose file declares service. It is
// always false when no compose file was read.
func (p *Project) HasService(service string) bool {
	_, ok := p.File.Services[service]
	return ok
}

// HasVolume reports whether the compose file declares the top-level
// volume key.
func (p *Project) HasVolume(key string) bool {
	_, ok := p.File.Volumes[key]
	return ok
}

// invalidNameChars matches characters compose strips from project names.
var invalidNameChars = regexp.MustCompile(`[^a-z0-9_-]`)

// findDefaultFile returns the first of DefaultFiles present in dir, or ""
// when there is none.
func findDefaultFile(dir string) string {
	for _, name := range DefaultFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// readDotEnv parses <dir>/.env. A missing file yields an empty map.
func readDotEnv(dir string) (gotenv.Env, error) {
	path := filepath.Join(dir, DotEnvFile)
	env, err := gotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return gotenv.Env{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return env, nil
}

// projectName applies compose's precedence: COMPOSE_PROJECT_NAME (process
// env, then .env), then the file's top-level name, then the directory
// basename.
func projectName(fromEnv, fromFile, dir string) (string, error) {
	if n := NormalizeProjectName(fromEnv); n != "" {
		return n, nil
	}
	if n := NormalizeProjectName(fromFile); n != "" {
		return n, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project directory %s: %w", dir, err)
	}
	if n := NormalizeProjectName(filepath.Base(abs)); n != "" {
		return n, nil
	}
	return "", fmt.Errorf("cannot derive a compose project name from directory %s", abs)
}

// NormalizeProjectName lowercases name and strips characters compose does
// not allow in project names. Leading '-' and '_' are removed as well.
func NormalizeProjectName(name string) string {
	n := invalidNameChars.ReplaceAllString(strings.ToLower(name), "")
	return strings.TrimLeft(n, "-_")
}
