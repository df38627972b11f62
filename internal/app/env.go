package app

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/config"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/dotenv"
	"github.com/vk/piohooks/internal/execx"
	"github.com/vk/piohooks/internal/fetch"
	"github.com/vk/piohooks/internal/projectconf"
)

// loadEnv reads .env and platformio.ini once and resolves everything hooks
// need. Missing or unreadable files are not errors; they are left nil and the
// hooks that need them stop softly.
func (a *App) loadEnv(ctx context.Context, client *fetch.Client) (*buildenv.Env, *config.Variables) {
	logger := ctxlog.FromContext(ctx)

	dotEnv, err := dotenv.Load(a.cfg.EnvFile)
	switch {
	case errors.Is(err, dotenv.ErrNotFound):
		logger.Debug("No .env file.", "path", a.cfg.EnvFile)
	case err != nil:
		logger.Warn("Ignoring unreadable .env file.", "path", a.cfg.EnvFile, "error", err)
		dotEnv = nil
	default:
		logger.Debug("Loaded .env file.", "path", a.cfg.EnvFile, "entries", dotEnv.Len())
	}

	project, err := projectconf.Load(a.cfg.ProjectConfig)
	switch {
	case errors.Is(err, projectconf.ErrNotFound):
		logger.Warn("Project config not found.", "path", a.cfg.ProjectConfig)
	case err != nil:
		logger.Warn("Ignoring unreadable project config.", "path", a.cfg.ProjectConfig, "error", err)
		project = nil
	}

	protocol := a.cfg.UploadProtocol
	if protocol == "" {
		protocol = project.UploadProtocol(a.cfg.PIOEnv)
	}

	env := &buildenv.Env{
		ProjectDir:             a.cfg.ProjectDir,
		BuildRoot:              a.cfg.BuildDir,
		PIOEnv:                 a.cfg.PIOEnv,
		UploadProtocol:         protocol,
		SupportsPrettyPrinters: prettyPrinters(a.cfg.PrettyPrinters, runtime.GOOS),
		DotEnv:                 dotEnv,
		Project:                project,
		Now:                    time.Now,
		Downloader:             client,
		Uploader:               client,
		Commands:               execx.NewRunner(),
	}
	vars := &config.Variables{
		PIOEnv:       a.cfg.PIOEnv,
		ProjectDir:   a.cfg.ProjectDir,
		BuildDir:     a.cfg.BuildDir,
		FrameworkDir: a.cfg.FrameworkDir,
		DotEnv:       dotEnv.Map(),
	}
	logger.Debug("Build environment resolved.",
		"pioenv", env.PIOEnv,
		"upload_protocol", env.UploadProtocol,
		"pretty_printers", env.SupportsPrettyPrinters)
	return env, vars
}

// prettyPrinters resolves the pretty printer mode. Only the Linux builds of
// the Xtensa debugger embed Python.
func prettyPrinters(mode, goos string) bool {
	switch mode {
	case PrettyPrintersOn:
		return true
	case PrettyPrintersOff:
		return false
	default:
		return goos == "linux"
	}
}
