// Package cli implements the cobra-based command surface of exrsplit.
//
// The tool has a single operation, so the root command does the work
// itself: it takes one positional folder argument, validates it, and
// runs the separation pipeline over it.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/exrsplit/internal/config"
	"github.com/shinji-kodama/exrsplit/internal/model"
	"github.com/shinji-kodama/exrsplit/internal/pipeline"
)

// Version, Commit and Date are injected from the main package, which
// receives them from ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootFlags holds the flag values bound on the root command.
type rootFlags struct {
	jobs       int    // --jobs: worker count, 0 = one per CPU
	configPath string // --config: explicit settings file
	verbose    bool   // --verbose: debug-level logging
	jsonOutput bool   // --json: machine-readable summary on stdout
}

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "exrsplit <folder>",
		Short: "Split multi-channel EXR sequences into per-channel file sets",
		Long: `exrsplit splits every multi-channel OpenEXR file in a folder into separate
per-channel EXR files. Raw channel labels are grouped into logical channels —
color (R/G/B/A), depth (Z) and arbitrary AOVs (dotted labels such as normal.X) —
and each group is written into a subfolder named after it, with the frame
number preserved in the output filename:

  renders/beauty_0042.exr  ->  renders/C/beauty.C_0042.exr
                               renders/Z/beauty.Z_0042.exr
                               renders/normal/beauty.normal_0042.exr

The channel layout is taken from the first file in the folder and assumed to
hold for the whole sequence.`,

		Args: cobra.ExactArgs(1),

		// Errors are formatted by Execute, not by cobra.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "Number of parallel workers (0 = one per CPU)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Settings file (default: exrsplit.{jsonc,json,yaml,yml} in the folder)")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print the run summary as JSON")

	return cmd
}

// Execute runs the root command and translates errors into process
// exit codes.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			fmt.Fprintf(os.Stderr, "Error: %s\n", cliErr.Error())
			os.Exit(int(cliErr.Code))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(model.ExitGeneralError))
	}
}

// runSplit validates the folder, assembles the pipeline and runs it.
func runSplit(ctx context.Context, folder string, flags *rootFlags) error {
	logger := newLogger(flags.verbose)

	info, err := os.Stat(folder)
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidFolder, fmt.Sprintf("folder invalid: %s", folder), err)
	}
	if !info.IsDir() {
		return model.NewCLIError(model.ExitInvalidFolder, fmt.Sprintf("folder invalid: %s is not a directory", folder))
	}

	settings, err := config.Load(folder, flags.configPath)
	if err != nil {
		return err
	}
	if flags.jobs > 0 {
		settings.Jobs = flags.jobs
	}

	sep, err := pipeline.New(folder, settings, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := sep.Run(ctx)
	printSummary(summary, flags.jsonOutput)
	return nil
}

// newLogger builds the process logger: text on stderr, debug level when
// verbose is requested.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printSummary renders the run summary on stdout in text or JSON form.
func printSummary(summary model.RunSummary, asJSON bool) {
	if asJSON {
		data, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(data))
		return
	}

	channels := strings.Join(summary.Channels, ", ")
	if channels == "" {
		channels = "none"
	}
	fmt.Printf("Separated %d file(s), channels: %s\n", summary.Files, channels)
	fmt.Printf("  Written: %d  Skipped: %d  Failed: %d\n", summary.Written, summary.Skipped, summary.Failed)
	if summary.Interrupted {
		fmt.Println("  Interrupted before all work units finished")
	}
	fmt.Printf("  Elapsed: %.2fs\n", summary.ElapsedSeconds)
}
