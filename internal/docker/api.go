package docker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/volume"

	"github.com/mmr-tortoise/airflow-dev/internal/model"
)

// APIRuntime implements Runtime against the Docker Engine API.
type APIRuntime struct {
	client *Client
}

// NewAPIRuntime connects to the daemon and verifies it answers.
// The caller must Close the returned runtime.
func NewAPIRuntime(ctx context.Context) (*APIRuntime, error) {
	c, err := NewClient()
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &APIRuntime{client: c}, nil
}

// Close releases the underlying client.
func (r *APIRuntime) Close() error {
	return r.client.Close()
}

// ContainerExists lists all containers, stopped ones included, filtered
// server-side by name, and confirms the exact match locally because the
// name filter is a regular expression over every name of a container.
func (r *APIRuntime) ContainerExists(ctx context.Context, name string) (bool, error) {
	list, err := r.client.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", "^/"+regexp.QuoteMeta(name)+"$")),
	})
	if err != nil {
		return false, model.WrapCLIError(model.ExitDockerNotRunning, "failed to list Docker containers", err)
	}
	return summariesContain(list, name), nil
}

// VolumeExists lists volumes filtered by name (a substring match on the
// daemon side) and confirms the exact match locally.
func (r *APIRuntime) VolumeExists(ctx context.Context, name string) (bool, error) {
	resp, err := r.client.inner.VolumeList(ctx, volume.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return false, model.WrapCLIError(model.ExitDockerNotRunning, "failed to list Docker volumes", err)
	}
	return volumesContain(resp.Volumes, name), nil
}

// RemoveContainer removes a stopped container. Running containers are
// refused by the daemon, like `docker rm` without --force.
func (r *APIRuntime) RemoveContainer(ctx context.Context, name string) error {
	if err := r.client.inner.ContainerRemove(ctx, name, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container %q: %w", name, err)
	}
	return nil
}

// RemoveVolume removes a volume that no container uses.
func (r *APIRuntime) RemoveVolume(ctx context.Context, name string) error {
	if err := r.client.inner.VolumeRemove(ctx, name, false); err != nil {
		return fmt.Errorf("failed to remove volume %q: %w", name, err)
	}
	return nil
}

// summariesContain reports whether any container carries name. The API
// returns names with a leading "/".
func summariesContain(list []container.Summary, name string) bool {
	for _, c := range list {
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") == name {
				return true
			}
		}
	}
	return false
}

func volumesContain(list []*volume.Volume, name string) bool {
	for _, v := range list {
		if v != nil && v.Name == name {
			return true
		}
	}
	return false
}
