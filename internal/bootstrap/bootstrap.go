// Package bootstrap brings up the local Airflow development environment.
//
// Run is a straight line of blocking steps, each waiting for the previous
// one to finish:
//
//  1. initialize the virtual environment (when managed)
//  2. create the logs and plugins directories, world-writable
//  3. export the requirements manifest and the container user id
//  4. on --reset-db, remove the database container and volume
//  5. docker compose up, whose exit status becomes ours
//
// Any failure ends the run. There is no retry and no rollback.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mmr-tortoise/airflow-dev/internal/compose"
	"github.com/mmr-tortoise/airflow-dev/internal/config"
	"github.com/mmr-tortoise/airflow-dev/internal/docker"
	"github.com/mmr-tortoise/airflow-dev/internal/execx"
	"github.com/mmr-tortoise/airflow-dev/internal/model"
	"github.com/mmr-tortoise/airflow-dev/internal/platform"
	"github.com/mmr-tortoise/airflow-dev/internal/ui"
	"github.com/mmr-tortoise/airflow-dev/internal/venv"
)

// Deps are the collaborators of a Bootstrapper.
type Deps struct {
	Config  *config.Config
	Runner  execx.Runner
	Runtime docker.Runtime
	Host    platform.Host
	Printer *ui.Printer
	Log     logrus.FieldLogger

	// Getenv is consulted for COMPOSE_PROJECT_NAME. Nil uses os.Getenv.
	Getenv func(string) string
}

// Bootstrapper runs the bootstrap procedure for one configuration.
type Bootstrapper struct {
	cfg     *config.Config
	runner  execx.Runner
	runtime docker.Runtime
	venv    *venv.Manager
	host    platform.Host
	printer *ui.Printer
	log     logrus.FieldLogger
	getenv  func(string) string
}

// New returns a Bootstrapper. The virtual environment manager is only
// created when the configuration asks for it.
func New(d Deps) *Bootstrapper {
	b := &Bootstrapper{
		cfg:     d.Config,
		runner:  d.Runner,
		runtime: d.Runtime,
		host:    d.Host,
		printer: d.Printer,
		log:     d.Log,
		getenv:  d.Getenv,
	}
	if b.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		b.log = discard
	}
	if b.getenv == nil {
		b.getenv = os.Getenv
	}
	if d.Config.ManageVenv {
		b.venv = venv.NewManager(d.Runner, d.Host, d.Printer, d.Config.Path(d.Config.VenvDir))
		b.venv.Python = d.Config.Python
		b.venv.DryRun = d.Config.DryRun
	}
	return b
}

// Run executes the procedure. It returns nil only when docker compose
// exited with status 0; a non-zero compose status is returned as a bare
// model.CLIError carrying that status.
func (b *Bootstrapper) Run(ctx context.Context, opts model.Options) error {
	cfg := b.cfg
	b.log.WithField("options", opts.String()).Debug("starting bootstrap")

	requirements := cfg.Path(cfg.Requirements)

	if b.venv != nil {
		if err := b.venv.Init(ctx, opts.Reset, requirements); err != nil {
			return err
		}
	}

	if err := b.prepareDirs(); err != nil {
		return err
	}

	manifest, err := os.ReadFile(requirements)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read requirements manifest %s", requirements), err)
	}

	env := map[string]string{
		cfg.RequirementsEnv: string(manifest),
		cfg.UIDEnv:          b.host.UserID(cfg.WindowsUID),
	}
	b.log.WithField(cfg.UIDEnv, env[cfg.UIDEnv]).Debug("exporting compose environment")

	project, err := compose.Load(cfg.ProjectDir, cfg.ComposeFile, b.getenv)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to inspect compose file", err)
	}

	if opts.ResetDB {
		if err := b.resetDatabase(ctx, project); err != nil {
			return err
		}
	}

	up := docker.ComposeUp{
		Dir:           cfg.ProjectDir,
		ForceRecreate: opts.Reset,
		Env:           env,
	}
	if cfg.ComposeFile != "" && project.Path != "" {
		up.Files = []string{cfg.ComposeFile}
	}

	res := up.Run(ctx, b.runner, cfg.DockerBin)
	b.log.WithField("code", res.Code).Debug("docker compose exited")
	if !res.OK() {
		return model.NewExitStatus(res.Code)
	}
	return nil
}

// prepareDirs creates the directories bind-mounted into the containers.
func (b *Bootstrapper) prepareDirs() error {
	dirs := []string{b.cfg.Path(b.cfg.LogsDir), b.cfg.Path(b.cfg.PluginsDir)}
	if b.cfg.DryRun {
		for _, d := range dirs {
			b.printer.Step("+ mkdir -p -m 0777 %s", d)
		}
		return nil
	}
	if err := platform.EnsureDirs(dirs...); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to prepare directories", err)
	}
	return nil
}

// DatabaseNames returns the container and volume names torn down by
// --reset-db. Explicit configuration wins over names derived from the
// compose project.
func (b *Bootstrapper) DatabaseNames(project *compose.Project) (containerName, volumeName string) {
	containerName = b.cfg.DBContainer
	if containerName == "" {
		containerName = project.ContainerName(b.cfg.DBService)
	}
	volumeName = b.cfg.DBVolume
	if volumeName == "" {
		volumeName = project.VolumeName(b.cfg.DBVolumeKey)
	}
	return containerName, volumeName
}

// resetDatabase removes the database container, then its volume. Either
// is skipped when absent. The container goes first because docker refuses
// to remove a volume that a container still references.
func (b *Bootstrapper) resetDatabase(ctx context.Context, project *compose.Project) error {
	containerName, volumeName := b.DatabaseNames(project)

	if project.Path != "" && b.cfg.DBContainer == "" && !project.HasService(b.cfg.DBService) {
		b.printer.Warn("service %q is not declared in %s", b.cfg.DBService, project.Path)
	}
	if project.Path != "" && b.cfg.DBVolume == "" && !project.HasVolume(b.cfg.DBVolumeKey) {
		b.printer.Warn("volume %q is not declared in %s", b.cfg.DBVolumeKey, project.Path)
	}

	exists, err := b.runtime.ContainerExists(ctx, containerName)
	if err != nil {
		return err
	}
	if exists {
		b.printer.Step("Removing existing %s container", containerName)
		if err := b.runtime.RemoveContainer(ctx, containerName); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove %s container", containerName), err)
		}
	} else {
		b.log.WithField("container", containerName).Debug("database container absent")
	}

	exists, err = b.runtime.VolumeExists(ctx, volumeName)
	if err != nil {
		return err
	}
	if exists {
		b.printer.Step("Removing existing %s volume", volumeName)
		if err := b.runtime.RemoveVolume(ctx, volumeName); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove %s volume", volumeName), err)
		}
	} else {
		b.log.WithField("volume", volumeName).Debug("database volume absent")
	}

	b.printer.Success("Database reset, it will be recreated on startup")
	return nil
}
