// Package projectconf reads the PlatformIO project configuration
// (platformio.ini). The view is read-only: hooks that need to change a value
// report the new value as an effect rather than rewriting the file.
package projectconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// Section and key names consumed by the hooks.
const (
	SectionMetadata = "metadata"
	SectionEmbedded = "embedded"
	SectionEnv      = "env"

	KeyProductName       = "product_name"
	KeyReleaseVersion    = "release_version"
	KeyBuildType         = "build_type"
	KeyUploadProtocol    = "upload_protocol"
	KeyFilesystem        = "board_build.filesystem"
	KeyDebugExtraCmds    = "debug_extra_cmds"
	KeyBuildFilesExclude = "custom_build_files_exclude"
	keyExtends           = "extends"
)

var (
	// ErrNotFound is returned by Load when the configuration file does not exist.
	ErrNotFound = errors.New("project config not found")
	// ErrMissingKey is returned when a required section or key is absent.
	ErrMissingKey = errors.New("missing project config key")
)

var loadOptions = ini.LoadOptions{
	AllowPythonMultilineValues: true,
	SpaceBeforeInlineComment:   true,
	InsensitiveKeys:            true,
}

// Config is a parsed platformio.ini.
type Config struct {
	Path string
	file *ini.File
}

// Load reads and parses the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read project config '%s': %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project config '%s': %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse parses configuration text.
func Parse(data []byte) (*Config, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, err
	}
	return &Config{file: f}, nil
}

// Lookup returns the value of key in section.
func (c *Config) Lookup(section, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	sec, err := c.file.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

// Get returns the value of key in section, or an error wrapping ErrMissingKey.
func (c *Config) Get(section, key string) (string, error) {
	v, ok := c.Lookup(section, key)
	if !ok {
		return "", fmt.Errorf("%w: [%s] %s", ErrMissingKey, section, key)
	}
	return v, nil
}

// EnvSectionName returns the section holding options for a build environment.
func EnvSectionName(pioenv string) string {
	return SectionEnv + ":" + pioenv
}

// EnvOption resolves key for a build environment the way PlatformIO does:
// the env section first, then every section it extends, then the shared
// [env] section.
func (c *Config) EnvOption(pioenv, key string) (string, bool) {
	section := EnvSectionName(pioenv)
	if v, ok := c.Lookup(section, key); ok {
		return v, true
	}
	if extends, ok := c.Lookup(section, keyExtends); ok {
		for _, parent := range splitList(extends) {
			if v, ok := c.Lookup(parent, key); ok {
				return v, true
			}
		}
	}
	return c.Lookup(SectionEnv, key)
}

// ProductName returns metadata.product_name.
func (c *Config) ProductName() (string, error) {
	return c.Get(SectionMetadata, KeyProductName)
}

// ReleaseVersion returns metadata.release_version.
func (c *Config) ReleaseVersion() (string, error) {
	return c.Get(SectionMetadata, KeyReleaseVersion)
}

// BuildType returns build_type for the build environment.
func (c *Config) BuildType(pioenv string) (string, error) {
	v, ok := c.EnvOption(pioenv, KeyBuildType)
	if !ok {
		return "", fmt.Errorf("%w: [%s] %s", ErrMissingKey, EnvSectionName(pioenv), KeyBuildType)
	}
	return v, nil
}

// UploadProtocol returns upload_protocol for the build environment, or "".
func (c *Config) UploadProtocol(pioenv string) string {
	v, _ := c.EnvOption(pioenv, KeyUploadProtocol)
	return v
}

// Filesystem returns the configured filesystem image type, or "" when the
// target has none.
func (c *Config) Filesystem() string {
	v, _ := c.Lookup(SectionEmbedded, KeyFilesystem)
	return strings.TrimSpace(v)
}

// DebugExtraCmds returns the debugger commands, one per line.
func (c *Config) DebugExtraCmds() []string {
	v, _ := c.Lookup(SectionEmbedded, KeyDebugExtraCmds)
	var cmds []string
	for _, line := range strings.Split(v, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cmds = append(cmds, line)
		}
	}
	return cmds
}

// BuildFilesExclude returns the whitespace separated exclusion patterns.
func (c *Config) BuildFilesExclude() []string {
	v, _ := c.Lookup(SectionEmbedded, KeyBuildFilesExclude)
	return strings.Fields(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
