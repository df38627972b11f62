package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/piohooks/internal/config"
	"github.com/vk/piohooks/internal/ctxlog"
)

// ValidatePipeline checks that every hook in the pipeline has a registered
// Go handler.
func (r *Registry) ValidatePipeline(ctx context.Context, pipeline *config.Pipeline) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, hook := range pipeline.Hooks {
		if _, ok := r.HookRegistry[hook.Type]; !ok {
			errs = append(errs, fmt.Sprintf("hook '%s' at %s: unknown hook type '%s' (known: %s)",
				hook.ID(), hook.DeclRange, hook.Type, strings.Join(r.Types(), ", ")))
		}
	}

	if len(errs) > 0 {
		logger.Error("Pipeline validation failed.", "errors", len(errs))
		return errors.New("pipeline validation failed:\n" + strings.Join(errs, "\n"))
	}
	logger.Debug("Pipeline validation passed.", "hooks", len(pipeline.Hooks))
	return nil
}
