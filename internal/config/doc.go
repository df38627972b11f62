// Package config defines the format-agnostic hook pipeline model along with
// the core interfaces (Loader, Converter) for loading it and binding hook
// arguments to Go types.
//
// The `config.Pipeline` is the single source of truth for the `app`
// package. The HCL implementation of the interfaces lives in `internal/hcl`.
package config
