// Package main is the entry point for the exrsplit CLI.
//
// The binary splits folders of multi-channel OpenEXR files into
// per-channel file sets. All functionality lives in internal/cli,
// which defines the cobra command.
package main

import (
	"github.com/shinji-kodama/exrsplit/internal/cli"
)

// version, commit and date are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
