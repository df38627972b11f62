// Package registry provides the central "glue" for the hook system.
//
// The Registry stores the mapping between the hook type names used in
// pipeline files (e.g., "ota_manifest") and the compiled Go functions that
// implement them. During application startup the registry is populated by
// every core module and then validated against the loaded pipeline, so a
// pipeline that names an unknown hook type is rejected before any hook runs.
package registry
