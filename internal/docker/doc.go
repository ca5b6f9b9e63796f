// Package docker provides the container-runtime operations the
// airflow-dev bootstrapper needs:
//   - existence checks for a named container and a named volume
//   - removal of a container and of a volume
//   - `docker compose up`, whose exit status becomes the CLI's
//
// Existence checks and removals sit behind the Runtime interface with two
// backends. CLIRuntime shells out to the docker binary through
// execx.Runner. APIRuntime talks to the Engine API using
// github.com/docker/docker/client, with automatic socket detection
// (Linux, macOS, Windows). Compose always runs through the docker binary
// because compose is a CLI plugin, not an Engine API.
package docker
