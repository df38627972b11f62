package buildenv

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/piohooks/internal/dotenv"
	"github.com/vk/piohooks/internal/projectconf"
)

// Downloader fetches a URL into a local file.
type Downloader interface {
	// Fetch downloads url into dest unless dest already exists. It reports
	// whether a network request was made.
	Fetch(ctx context.Context, url, dest string) (bool, error)
}

// Uploader publishes a local file to a URL.
type Uploader interface {
	Upload(ctx context.Context, url, path string, headers map[string]string) (int64, error)
}

// CommandRunner runs an external tool to completion.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
	LookPath(name string) (string, bool)
}

// Env is the build configuration a hook runs against. It is resolved once
// per invocation and never mutated by hooks.
type Env struct {
	ProjectDir string
	// BuildRoot is the framework's build directory (.pio/build).
	BuildRoot      string
	PIOEnv         string
	UploadProtocol string
	// SupportsPrettyPrinters reports whether the debugger on this host can
	// load the project's .gdbinit.
	SupportsPrettyPrinters bool

	// DotEnv is nil when the project has no .env file.
	DotEnv *dotenv.File
	// Project is nil when platformio.ini could not be read.
	Project *projectconf.Config

	Now        func() time.Time
	Downloader Downloader
	Uploader   Uploader
	Commands   CommandRunner
}

// EnvBuildDir returns the output directory of the active build environment.
func (e *Env) EnvBuildDir() string {
	return filepath.Join(e.BuildRoot, e.PIOEnv)
}

// IsDebug reports whether the active build environment is a debug variant.
func (e *Env) IsDebug() bool {
	return strings.Contains(e.PIOEnv, "debug")
}

// IsNetworkUpload reports whether uploads go over the network (espota)
// rather than a serial port.
func (e *Env) IsNetworkUpload() bool {
	return strings.Contains(e.UploadProtocol, "espota")
}

// Clock returns the current time from Now, or time.Now when unset.
func (e *Env) Clock() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
