package ota_manifest

import (
	"strings"
)

// Manifest is the OTA descriptor an update client polls to find the latest
// firmware for its type. Optional fields are omitted when the corresponding
// artifact was not built.
type Manifest struct {
	Type    string `json:"type"`
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
	Spiffs  string `json:"spiffs,omitempty"`
}

// Release identifies a build for naming purposes.
type Release struct {
	ProductName string
	Version     string
	BuildType   string
}

// Basename is the canonical artifact type: the product name lowercased with
// spaces replaced by dashes, suffixed with the build type.
func (r Release) Basename() string {
	return strings.ToLower(strings.ReplaceAll(r.ProductName, " ", "-")) + "-" + r.BuildType
}

// FirmwareName is the versioned name of the published firmware binary.
func (r Release) FirmwareName() string {
	return r.stem() + ".bin"
}

// FilesystemName is the versioned name of the published filesystem image.
func (r Release) FilesystemName() string {
	return r.stem() + ".spiffs.bin"
}

func (r Release) stem() string {
	return r.Basename() + "-v" + r.Version + "-" + r.BuildType
}

// UpdateURL is the configured manifest location, e.g.
// https://host/firmware/coop.json.
type UpdateURL string

// Dir returns everything before the last '/', matching how artifacts are
// published next to the manifest.
func (u UpdateURL) Dir() string {
	s := string(u)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[:i]
	}
	return ""
}

// Base returns everything after the last '/': the manifest filename.
func (u UpdateURL) Base() string {
	s := string(u)
	return s[strings.LastIndex(s, "/")+1:]
}

// NewManifest builds the descriptor for a release. URLs are only set for
// artifacts that exist.
func NewManifest(rel Release, updateURL UpdateURL, hasFirmware, hasFilesystem bool) Manifest {
	m := Manifest{
		Type:    rel.Basename(),
		Version: rel.Version,
	}
	if hasFirmware {
		m.URL = updateURL.Dir() + "/" + rel.FirmwareName()
	}
	if hasFilesystem {
		m.Spiffs = updateURL.Dir() + "/" + rel.FilesystemName()
	}
	return m
}
