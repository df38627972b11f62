package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vk/piohooks/internal/config"
)

// Pretty printer modes.
const (
	PrettyPrintersAuto = "auto"
	PrettyPrintersOn   = "on"
	PrettyPrintersOff  = "off"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProjectDir    string
	EnvFile       string // defaults to <project>/.env
	ProjectConfig string // defaults to <project>/platformio.ini
	BuildDir      string // defaults to <project>/.pio/build
	FrameworkDir  string

	PIOEnv         string
	Phase          config.Phase
	Trigger        string
	UploadProtocol string

	PipelinePaths  []string // hcl files; empty means the built-in pipeline
	HookFilters    []string
	PrettyPrinters string
	Strict         bool

	DownloadTimeout time.Duration
	LogFormat       string
	LogLevel        string
}

// NewConfig validates cfg and fills in path defaults relative to the project
// directory.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PIOEnv == "" {
		return nil, errors.New("PIOEnv is a required configuration field and cannot be empty")
	}
	if cfg.Phase == "" {
		cfg.Phase = config.PhasePre
	}
	if _, err := config.ParsePhase(string(cfg.Phase)); err != nil {
		return nil, err
	}
	switch cfg.PrettyPrinters {
	case "":
		cfg.PrettyPrinters = PrettyPrintersAuto
	case PrettyPrintersAuto, PrettyPrintersOn, PrettyPrintersOff:
	default:
		return nil, fmt.Errorf("invalid pretty-printers mode '%s': must be 'auto', 'on' or 'off'", cfg.PrettyPrinters)
	}

	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}
	if cfg.EnvFile == "" {
		cfg.EnvFile = filepath.Join(cfg.ProjectDir, ".env")
	}
	if cfg.ProjectConfig == "" {
		cfg.ProjectConfig = filepath.Join(cfg.ProjectDir, "platformio.ini")
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = filepath.Join(cfg.ProjectDir, ".pio", "build")
	}
	return &cfg, nil
}
