// Command corepipe drives the PIM/DPU walker-compiler pipeline: it loads
// a typed property graph and walker program, analyzes, partitions, and
// schedules them across a DPU cluster, and dispatches per-round memory
// images to a backing simulator collaborator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pimwalk/corepipe/cmd/corepipe/commands"
	"github.com/pimwalk/corepipe/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "corepipe",
		Short: "PIM/DPU walker-compiler pipeline driver",
		Long: `corepipe analyzes a typed property graph and its walker program,
partitions it across a DPU cluster, schedules bounded-concurrency rounds,
and dispatches per-round DPU memory images to a backing simulator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewValidateConfigCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "corepipe %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
