// Package execx runs external build tools with their output passed through
// to the build log.
package execx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vk/piohooks/internal/ctxlog"
)

// Runner executes commands. The combined output of the child is written to
// the context logger line by line once it exits.
type Runner struct{}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes name with args in dir and waits for it to finish.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Running external tool", "cmd", name+" "+strings.Join(args, " "), "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			logger.Debug("tool output", "line", line)
		}
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// LookPath reports the resolved path of an executable.
func (r *Runner) LookPath(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}
