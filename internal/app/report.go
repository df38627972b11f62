package app

import (
	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/config"
)

// Hook statuses reported per run.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// HookResult is the outcome of a single hook.
type HookResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Report is printed to stdout after a run. The framework shim applies
// Effects to its build environment.
type Report struct {
	PIOEnv  string           `json:"pioenv"`
	Phase   config.Phase     `json:"phase"`
	Trigger string           `json:"trigger,omitempty"`
	Hooks   []HookResult     `json:"hooks"`
	Effects buildenv.Effects `json:"effects"`
}

// Failed returns the results with StatusFailed.
func (r *Report) Failed() []HookResult {
	var failed []HookResult
	for _, h := range r.Hooks {
		if h.Status == StatusFailed {
			failed = append(failed, h)
		}
	}
	return failed
}
