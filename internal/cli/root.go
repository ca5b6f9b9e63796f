// Package cli implements the cobra root command for airflow-dev.
//
// The tool has no subcommands: the root command parses the flags, loads
// the configuration and runs the bootstrap procedure. Execute translates
// the returned error into the process exit status.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/airflow-dev/internal/bootstrap"
	"github.com/mmr-tortoise/airflow-dev/internal/config"
	"github.com/mmr-tortoise/airflow-dev/internal/docker"
	"github.com/mmr-tortoise/airflow-dev/internal/execx"
	"github.com/mmr-tortoise/airflow-dev/internal/model"
	"github.com/mmr-tortoise/airflow-dev/internal/platform"
	"github.com/mmr-tortoise/airflow-dev/internal/ui"
)

// Version, Commit and Date are set from main at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Deps overrides the collaborators NewRootCommand would otherwise build
// from the configuration. Zero fields are built as usual.
type Deps struct {
	Runner  execx.Runner
	Runtime docker.Runtime
	Host    *platform.Host
	Getenv  func(string) string
}

type rootFlags struct {
	opts       model.Options
	configFile string
}

// NewRootCommand creates the root command wired to real processes and the
// real container runtime.
func NewRootCommand() *cobra.Command {
	return newRootCommand(Deps{})
}

func newRootCommand(deps Deps) *cobra.Command {
	var f rootFlags

	rootCmd := &cobra.Command{
		Use:   "airflow-dev",
		Short: "Bootstrap the local Airflow development environment",
		Long: `airflow-dev prepares and starts the local Airflow stack:

  - creates ../.venv and installs ../requirements.txt into it
  - creates airflow/logs and airflow/plugins, writable by the containers
  - exports _PIP_ADDITIONAL_REQUIREMENTS and AIRFLOW_UID
  - runs docker compose up, and exits with its status

Use --reset to rebuild the virtual environment and recreate the containers,
and --reset-db to drop the database container and its volume first.`,
		Args: cobra.NoArgs,

		// Errors are printed by Execute, which knows about silent exit
		// statuses.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd, &f, deps)
		},
	}

	fs := rootCmd.Flags()
	fs.BoolVarP(&f.opts.Reset, "reset", "r", false, "Recreate the virtual environment and force-recreate the containers")
	fs.BoolVarP(&f.opts.ResetDB, "reset-db", "d", false, "Remove the database container and volume before startup")
	fs.StringVar(&f.configFile, "config", "", "Config file (default: .airflow-dev.{yaml,json,jsonc} in the project directory)")
	fs.String("project-dir", ".", "Compose project directory")
	fs.Bool("no-venv", false, "Skip virtual environment management")
	fs.String("runtime", config.RuntimeCLI, "Container runtime backend: cli or api")
	fs.Bool("dry-run", false, "Print the commands instead of running them")
	fs.BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return model.WrapCLIError(model.ExitGeneralError, "invalid arguments", err)
	})

	return rootCmd
}

func runBootstrap(cmd *cobra.Command, f *rootFlags, deps Deps) error {
	ctx := cmd.Context()

	loader := config.NewLoader()
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to bind flags", err)
	}
	cfg, err := loader.Load(f.configFile)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid configuration", err)
	}

	log := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.File != "" {
		log.WithField("file", cfg.File).Debug("loaded config file")
	}

	runner := deps.Runner
	if runner == nil {
		if cfg.DryRun {
			runner = &execx.DryRunner{Out: cmd.OutOrStdout()}
		} else {
			runner = execx.NewOSRunner(log)
		}
	}

	runtime := deps.Runtime
	if runtime == nil {
		rt, closeRuntime, err := newRuntime(ctx, cfg, runner)
		if err != nil {
			return err
		}
		defer closeRuntime()
		runtime = rt
	}

	host := platform.Current()
	if deps.Host != nil {
		host = *deps.Host
	}

	b := bootstrap.New(bootstrap.Deps{
		Config:  cfg,
		Runner:  runner,
		Runtime: runtime,
		Host:    host,
		Printer: ui.New(cmd.OutOrStdout()),
		Log:     log,
		Getenv:  deps.Getenv,
	})
	return b.Run(ctx, f.opts)
}

// newRuntime selects the runtime backend. A dry run always uses the cli
// backend over the dry runner, so nothing is queried or removed.
func newRuntime(ctx context.Context, cfg *config.Config, runner execx.Runner) (docker.Runtime, func(), error) {
	if cfg.Runtime == config.RuntimeAPI && !cfg.DryRun {
		rt, err := docker.NewAPIRuntime(ctx)
		if err != nil {
			return nil, nil, err
		}
		return rt, func() { _ = rt.Close() }, nil
	}
	return docker.NewCLIRuntime(runner, cfg.DockerBin), func() {}, nil
}

func newLogger(out io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// Execute runs the root command and exits the process with the resulting
// status. SIGINT cancels the running command; docker compose receives the
// same signal from the terminal and shuts the stack down itself.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, rootCmd, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes rootCmd and returns the exit status, printing the error
// to stderr unless it is a bare exit status.
func run(ctx context.Context, rootCmd *cobra.Command, stderr io.Writer) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return int(model.ExitSuccess)
	}
	printError(stderr, err)
	return int(model.ExitCodeOf(err))
}

func printError(w io.Writer, err error) {
	if cliErr, ok := err.(*model.CLIError); ok {
		switch {
		case cliErr.Silent():
			return
		case cliErr.Err != nil && cliErr.Message != "":
			fmt.Fprintf(w, "Error: %s: %v\n", cliErr.Message, cliErr.Err)
		default:
			fmt.Fprintf(w, "Error: %s\n", cliErr.Error())
		}
		return
	}
	fmt.Fprintf(w, "Error: %s\n", err)
}
