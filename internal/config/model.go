package config

import (
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
)

// Phase is the point in the build at which a hook runs.
type Phase string

const (
	// PhasePre runs before compilation; hooks contribute defines and upload settings.
	PhasePre Phase = "pre"
	// PhasePost runs after an artifact is produced.
	PhasePost Phase = "post"
)

// ParsePhase validates a phase name.
func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case PhasePre, PhasePost:
		return Phase(s), nil
	default:
		return "", fmt.Errorf("invalid phase '%s': must be '%s' or '%s'", s, PhasePre, PhasePost)
	}
}

// Pipeline is the ordered list of hooks declared by the user.
type Pipeline struct {
	Hooks []*Hook
}

// Hook is the format-agnostic representation of a `hook` block.
type Hook struct {
	Type  string
	Name  string
	Phase Phase
	// On lists the triggers a post hook reacts to. Empty means every trigger.
	On []string
	// Enabled is evaluated at run time; nil means enabled.
	Enabled hcl.Expression
	// Arguments is the raw `arguments` block body, decoded per hook type.
	Arguments hcl.Body
	DeclRange hcl.Range
}

// ID returns the hook's unique address, "type.name".
func (h *Hook) ID() string {
	return h.Type + "." + h.Name
}

// Matches reports whether the hook is selected by a "type" or "type.name" filter.
func (h *Hook) Matches(filter string) bool {
	return filter == h.Type || filter == h.ID()
}

// RunsOn reports whether the hook runs for the given phase and trigger.
func (h *Hook) RunsOn(phase Phase, trigger string) bool {
	if h.Phase != phase {
		return false
	}
	if phase != PhasePost || trigger == "" || len(h.On) == 0 {
		return true
	}
	return slices.Contains(h.On, trigger)
}

// Variables are the values hook expressions can reference.
type Variables struct {
	PIOEnv     string
	ProjectDir string
	BuildDir   string

	// FrameworkDir is the ESP-IDF framework package directory, when known.
	FrameworkDir string
	DotEnv       map[string]string
}
