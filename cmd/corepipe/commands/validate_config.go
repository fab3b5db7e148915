package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pimwalk/corepipe/pkg/config"
)

// NewValidateConfigCommand creates the validate-config command: it loads
// a configuration without running a pipeline and reports every
// violation found, not just the first (SPEC_FULL §3).
func NewValidateConfigCommand() *cobra.Command {
	return newValidateConfigCommandWithDeps(config.LoadRaw)
}

func newValidateConfigCommandWithDeps(loadConfig configLoaderFunc) *cobra.Command {
	var (
		configFile string
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate configuration without running a pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}

			return runValidateConfig(cmd, loadConfig, configFile)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Configuration file path (default: corepipe.yaml in CWD or /etc/corepipe)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored status output")

	return cmd
}

func runValidateConfig(cmd *cobra.Command, loadConfig configLoaderFunc, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "failed to load configuration: %v\n", err) //nolint:errcheck // best-effort status output.
		os.Exit(exitCodeConfigInvalid)

		return nil
	}

	errs := config.ValidateAll(cfg)

	if len(errs) == 0 {
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "configuration is valid\n") //nolint:errcheck // best-effort status output.
		fmt.Fprintf(cmd.OutOrStdout(), "  mapping=%s dpu_num=%d max_dpu_thread_num=%d n_sim=%d target_node_count=%d\n",
			cfg.Cluster.Mapping, cfg.Cluster.DPUNum, cfg.Cluster.MaxDPUThreadNum, cfg.Sim.NSim, cfg.Analysis.TargetNodeCount)

		return nil
	}

	color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "configuration is invalid (%d violation(s))\n", len(errs)) //nolint:errcheck // best-effort status output.

	for _, e := range errs {
		color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "  - %v\n", e) //nolint:errcheck // best-effort status output.
	}

	os.Exit(exitCodeConfigInvalid)

	return nil
}

const exitCodeConfigInvalid = 2
