// Package schema holds the gohcl decoding targets for pipeline files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// HookArgs represents the content of the 'arguments' block within a hook.
// It is kept raw and decoded later into the hook type's input struct.
type HookArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Hook represents a `hook` block from a pipeline file: a configured
// instance of a registered hook type.
type Hook struct {
	Type      string         `hcl:"hook_type,label"`
	Name      string         `hcl:"instance_name,label"`
	Phase     string         `hcl:"phase"`
	On        []string       `hcl:"on,optional"`
	Enabled   hcl.Expression `hcl:"enabled,optional"`
	Arguments *HookArgs      `hcl:"arguments,block"`
	DeclRange hcl.Range      `hcl:",def_range"`
}

// PipelineFile represents the top-level structure of a pipeline file.
type PipelineFile struct {
	Hooks []*Hook  `hcl:"hook,block"`
	Body  hcl.Body `hcl:",remain"`
}
