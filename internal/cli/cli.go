package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/vk/piohooks/internal/app"
	"github.com/vk/piohooks/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := pflag.NewFlagSet("piohooks", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
piohooks - PlatformIO build hooks: .env defines, upload parameters, OTA manifests.

Usage:
  piohooks [options] [HOOK_ID...]

Arguments:
  HOOK_ID
    Restrict the run to hooks matching "type" or "type.name".

Options:
`)
		flagSet.PrintDefaults()
	}

	projectDir := flagSet.StringP("project-dir", "d", ".", "PlatformIO project directory.")
	envFile := flagSet.String("env-file", "", "Path to the .env file. Defaults to <project-dir>/.env.")
	projectConfig := flagSet.String("project-config", "", "Path to platformio.ini. Defaults to <project-dir>/platformio.ini.")
	buildDir := flagSet.String("build-dir", "", "Build directory. Defaults to <project-dir>/.pio/build.")
	frameworkDir := flagSet.String("framework-dir", "", "ESP-IDF framework package directory.")
	pioEnv := flagSet.StringP("pioenv", "e", "", "Active build environment (required).")
	phase := flagSet.StringP("phase", "p", string(config.PhasePre), "Pipeline phase: 'pre' or 'post'.")
	trigger := flagSet.StringP("trigger", "t", "", "Artifact event that fired a post hook, e.g. 'firmware'.")
	uploadProtocol := flagSet.String("upload-protocol", "", "Upload protocol. Defaults to upload_protocol from platformio.ini.")
	pipelinePaths := flagSet.StringArray("pipeline", nil, "Pipeline .hcl file or directory. Repeatable. Defaults to the built-in pipeline.")
	prettyPrinters := flagSet.String("pretty-printers", app.PrettyPrintersAuto, "Debugger pretty printer support: 'auto', 'on' or 'off'.")
	strict := flagSet.Bool("strict", false, "Exit non-zero when any hook fails.")
	timeout := flagSet.Duration("download-timeout", time.Minute, "Timeout for each download.")
	logFormat := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevel := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if len(args) == 0 {
		slog.Debug("No arguments provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	format := strings.ToLower(*logFormat)
	if format != "text" && format != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	level := strings.ToLower(*logLevel)
	switch level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		ProjectDir:      *projectDir,
		EnvFile:         *envFile,
		ProjectConfig:   *projectConfig,
		BuildDir:        *buildDir,
		FrameworkDir:    *frameworkDir,
		PIOEnv:          *pioEnv,
		Phase:           config.Phase(strings.ToLower(*phase)),
		Trigger:         *trigger,
		UploadProtocol:  *uploadProtocol,
		PipelinePaths:   *pipelinePaths,
		HookFilters:     flagSet.Args(),
		PrettyPrinters:  strings.ToLower(*prettyPrinters),
		Strict:          *strict,
		DownloadTimeout: *timeout,
		LogFormat:       format,
		LogLevel:        level,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
