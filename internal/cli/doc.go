// Package cli turns command-line flags into an app.Config. Usage errors are
// returned as ExitError values carrying exit code 2.
package cli
