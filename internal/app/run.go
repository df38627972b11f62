package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/goccy/go-json"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/config"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/fetch"
)

// Run executes the hooks selected for the configured phase and trigger, in
// pipeline order, and writes the report. With Strict set, a failed hook makes
// Run return an error after the report has been written.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "phase", a.cfg.Phase, "trigger", a.cfg.Trigger)

	client := fetch.New(a.cfg.DownloadTimeout)
	defer client.Close()

	env, vars := a.loadEnv(ctx, client)

	report, err := a.execute(ctx, env, vars)
	if err != nil {
		return err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := fmt.Fprintln(a.outW, string(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if failed := report.Failed(); len(failed) > 0 && a.cfg.Strict {
		return fmt.Errorf("%d hook(s) failed, first: %s: %s", len(failed), failed[0].ID, failed[0].Reason)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// execute runs the selected hooks one after another. Hook errors never stop
// the pipeline; only cancellation does.
func (a *App) execute(ctx context.Context, env *buildenv.Env, vars *config.Variables) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	report := &Report{PIOEnv: env.PIOEnv, Phase: a.cfg.Phase, Trigger: a.cfg.Trigger, Hooks: []HookResult{}}

	for _, filter := range a.cfg.HookFilters {
		if !slices.ContainsFunc(a.pipeline.Hooks, func(h *config.Hook) bool { return h.Matches(filter) }) {
			logger.Warn("Hook filter matches no hook in the pipeline.", "filter", filter)
		}
	}

	for _, hook := range a.pipeline.Hooks {
		if !hook.RunsOn(a.cfg.Phase, a.cfg.Trigger) || !a.selected(hook) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hctx := ctxlog.WithHook(ctx, hook.ID())
		result, effects := a.runHook(hctx, hook, env, vars)
		report.Hooks = append(report.Hooks, result)
		report.Effects.Merge(effects)
	}

	logger.Info("Pipeline finished.", "phase", a.cfg.Phase, "trigger", a.cfg.Trigger, "hooks", len(report.Hooks))
	return report, nil
}

func (a *App) selected(hook *config.Hook) bool {
	if len(a.cfg.HookFilters) == 0 {
		return true
	}
	return slices.ContainsFunc(a.cfg.HookFilters, hook.Matches)
}

// runHook evaluates, decodes and invokes one hook. A SoftStop is reported as
// skipped; any other error as failed.
func (a *App) runHook(ctx context.Context, hook *config.Hook, env *buildenv.Env, vars *config.Variables) (HookResult, *buildenv.Effects) {
	logger := ctxlog.FromContext(ctx)
	result := HookResult{ID: hook.ID()}

	fail := func(err error) (HookResult, *buildenv.Effects) {
		logger.Error("Hook failed.", "error", err)
		result.Status, result.Reason = StatusFailed, err.Error()
		return result, nil
	}

	registered, ok := a.registry.Lookup(hook.Type)
	if !ok {
		return fail(fmt.Errorf("no handler registered for hook type '%s'", hook.Type))
	}

	enabled, err := a.converter.Enabled(ctx, hook, vars)
	if err != nil {
		return fail(err)
	}
	if !enabled {
		logger.Debug("Hook disabled.")
		result.Status, result.Reason = StatusSkipped, "disabled"
		return result, nil
	}

	input := registered.NewInput()
	if err := a.converter.DecodeArguments(ctx, hook, input, vars); err != nil {
		return fail(err)
	}

	logger.Debug("Running hook.")
	effects, err := registered.Fn(ctx, env, input)
	switch {
	case buildenv.IsSoftStop(err):
		logger.Warn(err.Error())
		result.Status, result.Reason = StatusSkipped, err.Error()
		return result, nil
	case err != nil:
		return fail(err)
	}

	result.Status = StatusOK
	return result, effects
}
