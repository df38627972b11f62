package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/piohooks/internal/config"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeArguments decodes the hook's arguments block into target, which must
// be a pointer to a struct with `hcl` tags. A hook without an arguments
// block decodes as an empty body, so required attributes still fail.
func (c *Converter) DecodeArguments(ctx context.Context, hook *config.Hook, target any, vars *config.Variables) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding hook arguments.", "hook", hook.ID())

	body := hook.Arguments
	if body == nil {
		body = hcl.EmptyBody()
	}
	if diags := gohcl.DecodeBody(body, EvalContext(vars), target); diags.HasErrors() {
		return fmt.Errorf("invalid arguments for hook %s: %w", hook.ID(), diags)
	}
	return nil
}

// Enabled evaluates the hook's `enabled` expression. An absent or null
// expression means the hook is enabled.
func (c *Converter) Enabled(ctx context.Context, hook *config.Hook, vars *config.Variables) (bool, error) {
	if hook.Enabled == nil {
		return true, nil
	}
	val, diags := hook.Enabled.Value(EvalContext(vars))
	if diags.HasErrors() {
		return false, fmt.Errorf("invalid enabled expression for hook %s: %w", hook.ID(), diags)
	}
	if val.IsNull() {
		return true, nil
	}
	val, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("enabled for hook %s must be a bool: %w", hook.ID(), err)
	}
	if !val.IsKnown() {
		return false, fmt.Errorf("enabled for hook %s is not known", hook.ID())
	}
	return val.True(), nil
}

// EvalContext exposes the build variables and a small function library to
// hook expressions.
func EvalContext(vars *config.Variables) *hcl.EvalContext {
	if vars == nil {
		vars = &config.Variables{}
	}
	dotenv := cty.MapValEmpty(cty.String)
	if len(vars.DotEnv) > 0 {
		m := make(map[string]cty.Value, len(vars.DotEnv))
		for k, v := range vars.DotEnv {
			m[k] = cty.StringVal(v)
		}
		dotenv = cty.MapVal(m)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"pioenv":        cty.StringVal(vars.PIOEnv),
			"project_dir":   cty.StringVal(vars.ProjectDir),
			"build_dir":     cty.StringVal(vars.BuildDir),
			"framework_dir": cty.StringVal(vars.FrameworkDir),
			"dotenv":        dotenv,
		},
		Functions: map[string]function.Function{
			"lookup":   stdlib.LookupFunc,
			"lower":    stdlib.LowerFunc,
			"upper":    stdlib.UpperFunc,
			"replace":  stdlib.ReplaceFunc,
			"format":   stdlib.FormatFunc,
			"join":     stdlib.JoinFunc,
			"coalesce": stdlib.CoalesceFunc,
			"contains": stdlib.ContainsFunc,
		},
	}
}
