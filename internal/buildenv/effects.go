package buildenv

// Effects is what a hook asks the build framework to change. Fields are
// applied by the framework shim in the order hooks ran.
type Effects struct {
	BuildFlags     []string `json:"build_flags,omitempty"`
	UnsetFlags     []string `json:"unset_flags,omitempty"`
	UploadPort     string   `json:"upload_port,omitempty"`
	UploadFlags    []string `json:"upload_flags,omitempty"`
	DebugExtraCmds string   `json:"debug_extra_cmds,omitempty"`
	ExcludedFiles  []string `json:"excluded_files,omitempty"`
	Artifacts      []string `json:"artifacts,omitempty"`
}

// Merge appends other onto e. Scalar fields are replaced when other sets them.
func (e *Effects) Merge(other *Effects) {
	if other == nil {
		return
	}
	e.BuildFlags = append(e.BuildFlags, other.BuildFlags...)
	e.UnsetFlags = append(e.UnsetFlags, other.UnsetFlags...)
	e.UploadFlags = append(e.UploadFlags, other.UploadFlags...)
	e.ExcludedFiles = append(e.ExcludedFiles, other.ExcludedFiles...)
	e.Artifacts = append(e.Artifacts, other.Artifacts...)
	if other.UploadPort != "" {
		e.UploadPort = other.UploadPort
	}
	if other.DebugExtraCmds != "" {
		e.DebugExtraCmds = other.DebugExtraCmds
	}
}
