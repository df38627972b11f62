// Package buildenv defines the explicit build configuration that is threaded
// into every hook (Env), the changes a hook asks the build framework to make
// (Effects), and the soft-stop error hooks use to abort themselves without
// failing the build.
package buildenv
