// Package ca_certs builds the TLS root certificate bundle flashed alongside
// the firmware. Certificates are downloaded once into the project; bundling
// is delegated to the framework's own generator script.
package ca_certs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/fsutil"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "ca_certs"

// DefaultCertURLs are the Let's Encrypt roots devices must trust.
var DefaultCertURLs = []string{
	"https://letsencrypt.org/certs/isrgrootx1.pem",
	"https://letsencrypt.org/certs/isrg-root-x2.pem",
	"https://letsencrypt.org/certs/isrg-root-x1-cross-signed.pem",
}

const (
	bundleOutput  = "x509_crt_bundle"
	localCertName = "cacrt_local.pem"
)

// generatorDir is relative to the ESP-IDF framework package.
var generatorDir = filepath.Join("components", "mbedtls", "esp_crt_bundle")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'ca_certs' hook.
type Input struct {
	FrameworkDir string   `hcl:"framework_dir,optional"`
	CertURLs     []string `hcl:"cert_urls,optional"`
	// CertsDir defaults to <project>/certs.
	CertsDir string `hcl:"certs_dir,optional"`
	Python   string `hcl:"python,optional"`
	// Output defaults to <build>/certs/ca_certs.bin.
	Output string `hcl:"output,optional"`
}

// OnRunCaCerts is the handler for the 'ca_certs' hook.
func OnRunCaCerts(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	logger := ctxlog.FromContext(ctx)

	if input.FrameworkDir == "" {
		return nil, buildenv.Skip("framework dir not set, can't locate the certificate bundle generator")
	}
	generator := filepath.Join(input.FrameworkDir, generatorDir, "gen_crt_bundle.py")
	if !fsutil.Exists(generator) {
		return nil, buildenv.Skip("certificate bundle generator not found at %s", generator)
	}
	if env.Downloader == nil || env.Commands == nil {
		return nil, errors.New("ca_certs requires a downloader and a command runner")
	}
	python := input.Python
	if python == "" {
		python = "python"
	}
	if _, ok := env.Commands.LookPath(python); !ok {
		return nil, buildenv.Skip("python interpreter '%s' not found, can't run the certificate bundle generator", python)
	}

	urls := input.CertURLs
	if len(urls) == 0 {
		urls = DefaultCertURLs
	}
	certsDir := input.CertsDir
	if certsDir == "" {
		certsDir = filepath.Join(env.ProjectDir, "certs")
	}

	var certs []string
	for _, url := range urls {
		dest := filepath.Join(certsDir, url[strings.LastIndex(url, "/")+1:])
		fetched, err := env.Downloader.Fetch(ctx, url, dest)
		if err != nil {
			return nil, fmt.Errorf("failed to download CA cert: %w", err)
		}
		if fetched {
			logger.Info("Downloaded CA cert", "url", url, "path", dest)
		} else {
			logger.Debug("CA cert already present", "path", dest)
		}
		certs = append(certs, dest)
	}

	local := filepath.Join(input.FrameworkDir, generatorDir, localCertName)
	if fsutil.Exists(local) {
		certs = append(certs, local)
	} else {
		logger.Debug("No local CA certs in framework", "path", local)
	}

	args := append([]string{generator, "--input"}, certs...)
	if err := env.Commands.Run(ctx, env.ProjectDir, python, args...); err != nil {
		return nil, fmt.Errorf("failed to generate CA bundle: %w", err)
	}

	output := input.Output
	if output == "" {
		output = filepath.Join(env.BuildRoot, "certs", "ca_certs.bin")
	}
	if err := fsutil.MoveFile(filepath.Join(env.ProjectDir, bundleOutput), output); err != nil {
		return nil, fmt.Errorf("failed to move CA bundle: %w", err)
	}
	logger.Info("Moved CA bundle", "from", bundleOutput, "to", output, "certs", len(certs))

	return &buildenv.Effects{Artifacts: []string{output}}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunCaCerts(ctx, env, input.(*Input))
		},
	})
}
