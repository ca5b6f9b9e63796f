package docker

import (
	"context"
	"sort"

	"github.com/mmr-tortoise/airflow-dev/internal/execx"
)

// ComposeUp describes a `docker compose up` invocation.
type ComposeUp struct {
	// Dir is the compose project directory.
	Dir string

	// Files are passed with -f in order. Empty lets compose discover the
	// default file in Dir.
	Files []string

	// ForceRecreate appends --force-recreate.
	ForceRecreate bool

	// Env is exported to compose on top of the inherited environment.
	Env map[string]string
}

// Args returns the docker arguments, starting with "compose".
func (u ComposeUp) Args() []string {
	args := make([]string, 0, len(u.Files)*2+3)
	args = append(args, "compose")
	for _, f := range u.Files {
		args = append(args, "-f", f)
	}
	args = append(args, "up")
	if u.ForceRecreate {
		args = append(args, "--force-recreate")
	}
	return args
}

// Command builds the execx.Command for bin (usually "docker"). Env entries
// are sorted so the command is deterministic.
func (u ComposeUp) Command(bin string) execx.Command {
	if bin == "" {
		bin = "docker"
	}
	keys := make([]string, 0, len(u.Env))
	for k := range u.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+u.Env[k])
	}
	return execx.Command{Name: bin, Args: u.Args(), Dir: u.Dir, Env: env}
}

// Run starts the stack in the foreground and returns compose's result.
// It blocks until compose exits.
func (u ComposeUp) Run(ctx context.Context, runner execx.Runner, bin string) execx.Result {
	return runner.Run(ctx, u.Command(bin))
}
