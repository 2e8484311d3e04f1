// Package model defines the shared domain types for the exrsplit CLI.
//
// This package contains pure data structures with no external dependencies:
// process exit codes, the CLIError type that carries an exit code across
// package boundaries, and the RunSummary reported at the end of a
// separation pass. Every other package can depend on it without cycles.
package model
