package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/piohooks/internal/config"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	cfg       *Config
	registry  *registry.Registry
	pipeline  *config.Pipeline
	converter config.Converter
}

// NewApp is the constructor for the main application. Reports are written to
// outW and logs to errW. Pipeline and registry errors are startup errors.
func NewApp(outW, errW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	pipeline, converter, err := loader.Load(ctx, cfg.PipelinePaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	logger.Debug("Pipeline loaded.", "hooks", len(pipeline.Hooks))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidatePipeline(ctx, pipeline); err != nil {
		return nil, err
	}

	return &App{
		outW:      outW,
		logger:    logger,
		cfg:       cfg,
		registry:  reg,
		pipeline:  pipeline,
		converter: converter,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
