package hcl

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/piohooks/internal/config"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/schema"
)

//go:embed default.hcl
var defaultPipeline []byte

// DefaultPipelineName is the filename reported for the built-in pipeline.
const DefaultPipelineName = "default.hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths, in lexical order per directory,
// and concatenates their hooks. With no paths the built-in pipeline is used.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Pipeline, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	parser := hclparse.NewParser()
	pipeline := &config.Pipeline{}
	seen := make(map[string]hcl.Range)

	add := func(file *hcl.File, name string) error {
		var root schema.PipelineFile
		if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
			return fmt.Errorf("failed to decode HCL file %s: %w", name, diags)
		}
		for _, block := range root.Hooks {
			hook, err := l.translateHook(block)
			if err != nil {
				return fmt.Errorf("%s: %w", block.DeclRange, err)
			}
			if prev, dup := seen[hook.ID()]; dup {
				return fmt.Errorf("%s: duplicate hook %q, first declared at %s", block.DeclRange, hook.ID(), prev)
			}
			seen[hook.ID()] = block.DeclRange
			pipeline.Hooks = append(pipeline.Hooks, hook)
		}
		return nil
	}

	if len(paths) == 0 {
		file, diags := parser.ParseHCL(defaultPipeline, DefaultPipelineName)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse built-in pipeline: %w", diags)
		}
		if err := add(file, DefaultPipelineName); err != nil {
			return nil, nil, err
		}
		logger.Debug("Loaded built-in pipeline.", "hooks", len(pipeline.Hooks))
		return pipeline, NewConverter(), nil
	}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	for _, name := range hclFiles {
		file, diags := parser.ParseHCLFile(name)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", name, diags)
		}
		if err := add(file, name); err != nil {
			return nil, nil, err
		}
	}

	logger.Debug("HCL loading complete.", "hooks", len(pipeline.Hooks))
	return pipeline, NewConverter(), nil
}

// translateHook converts the HCL-specific hook schema into the agnostic model.
func (l *Loader) translateHook(h *schema.Hook) (*config.Hook, error) {
	phase, err := config.ParsePhase(h.Phase)
	if err != nil {
		return nil, err
	}
	hook := &config.Hook{
		Type:      h.Type,
		Name:      h.Name,
		Phase:     phase,
		On:        h.On,
		Enabled:   h.Enabled,
		DeclRange: h.DeclRange,
	}
	if h.Arguments != nil {
		hook.Arguments = h.Arguments.Body
	}
	return hook, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found. Unlike directory entries, an explicitly named path must exist.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	addFile := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			addFile(path)
			continue
		}

		var dirFiles []string
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				dirFiles = append(dirFiles, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(dirFiles)
		for _, p := range dirFiles {
			addFile(p)
		}
	}
	return allFiles, nil
}
