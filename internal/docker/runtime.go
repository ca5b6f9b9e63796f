package docker

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/airflow-dev/internal/execx"
	"github.com/mmr-tortoise/airflow-dev/internal/model"
)

// Runtime is the container runtime as seen by the bootstrapper.
//
// The existence checks distinguish "absent" from "could not ask": a query
// failure is returned as a model.CLIError with ExitDockerNotRunning instead
// of being reported as (false, nil), so an unreachable daemon is never
// mistaken for "nothing to remove".
type Runtime interface {
	ContainerExists(ctx context.Context, name string) (bool, error)
	VolumeExists(ctx context.Context, name string) (bool, error)
	RemoveContainer(ctx context.Context, name string) error
	RemoveVolume(ctx context.Context, name string) error
}

// CLIRuntime implements Runtime by running the docker binary.
type CLIRuntime struct {
	Runner execx.Runner

	// Bin is the docker executable. Empty means "docker".
	Bin string
}

// NewCLIRuntime returns a CLIRuntime using bin through runner.
func NewCLIRuntime(runner execx.Runner, bin string) *CLIRuntime {
	return &CLIRuntime{Runner: runner, Bin: bin}
}

// ContainerExists lists all containers, running or not, and looks for an
// exact name match.
func (r *CLIRuntime) ContainerExists(ctx context.Context, name string) (bool, error) {
	return r.listContains(ctx, name, "ps", "-a", "--format", "{{.Names}}")
}

// VolumeExists lists all volumes and looks for an exact name match.
func (r *CLIRuntime) VolumeExists(ctx context.Context, name string) (bool, error) {
	return r.listContains(ctx, name, "volume", "ls", "--format", "{{.Name}}")
}

// RemoveContainer runs `docker rm <name>`.
func (r *CLIRuntime) RemoveContainer(ctx context.Context, name string) error {
	return r.run(ctx, "rm", name)
}

// RemoveVolume runs `docker volume rm <name>`.
func (r *CLIRuntime) RemoveVolume(ctx context.Context, name string) error {
	return r.run(ctx, "volume", "rm", name)
}

func (r *CLIRuntime) command(args ...string) execx.Command {
	bin := r.Bin
	if bin == "" {
		bin = "docker"
	}
	return execx.Command{Name: bin, Args: args}
}

func (r *CLIRuntime) listContains(ctx context.Context, name string, args ...string) (bool, error) {
	cmd := r.command(args...)
	out, res := r.Runner.Capture(ctx, cmd)
	if !res.OK() {
		return false, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to query container runtime (%s)", cmd),
			res.Err,
		)
	}
	return listingContains(out, name), nil
}

func (r *CLIRuntime) run(ctx context.Context, args ...string) error {
	cmd := r.command(args...)
	if res := r.Runner.Run(ctx, cmd); !res.OK() {
		return fmt.Errorf("%s exited with status %d: %w", cmd, res.Code, res.Err)
	}
	return nil
}

// listingContains reports whether name appears as a whole entry in the
// line-oriented output of `docker ps`/`docker volume ls`. A container with
// several names is printed as a comma-separated list on one line.
func listingContains(listing, name string) bool {
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		for _, entry := range strings.Split(scanner.Text(), ",") {
			if strings.TrimSpace(entry) == name {
				return true
			}
		}
	}
	return false
}
