// Package hcl provides the concrete HCL implementation for the pipeline
// loading and argument binding interfaces defined in the `config` package.
// It is responsible for file parsing, HCL-to-model translation, and
// evaluating hook expressions against the build variables.
package hcl
