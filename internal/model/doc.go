// Package model defines the domain types and value objects for the
// airflow-dev CLI.
//
// This package contains pure data structures with no external dependencies.
// The only long-lived state of a bootstrap run is the pair of flags in
// Options; everything else (paths, container names) is configuration.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
