package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pimwalk/corepipe/pkg/checkpoint"
	"github.com/pimwalk/corepipe/pkg/config"
	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/observability"
	"github.com/pimwalk/corepipe/pkg/orchestrator"
	"github.com/pimwalk/corepipe/pkg/perf"
)

// configLoaderFunc loads and validates a configuration file.
type configLoaderFunc func(path string) (*config.Config, error)

// observabilityInitFunc builds the run's tracer/meter/logger providers.
type observabilityInitFunc func(cfg *config.Config) (observability.Providers, error)

// graphLoaderFunc decodes a graph+program description from disk.
type graphLoaderFunc func(path string) (graphmodel.GraphInstance, graphmodel.GraphProgram, error)

// pipelineRunner is the part of *orchestrator.Orchestrator a run needs;
// substitutable in tests without exercising the real pipeline.
type pipelineRunner interface {
	Run(ctx context.Context) (*orchestrator.Result, error)
}

// orchestratorFactory builds a pipelineRunner for one run, already
// configured with resume semantics and a checkpoint manager.
type orchestratorFactory func(
	cfg config.Config,
	deps orchestrator.Dependencies,
	providers observability.Providers,
	meter *perf.Meter,
	ckpt *checkpoint.Manager,
	rng *rand.Rand,
	resume bool,
) pipelineRunner

func newDefaultOrchestrator(
	cfg config.Config,
	deps orchestrator.Dependencies,
	providers observability.Providers,
	meter *perf.Meter,
	ckpt *checkpoint.Manager,
	rng *rand.Rand,
	resume bool,
) pipelineRunner {
	return orchestrator.New(cfg, deps, providers.Tracer, providers.Logger, meter, rng, ckpt).WithResume(resume)
}

// RunCommand holds flags and dependencies for the unified pipeline run.
type RunCommand struct {
	graphPath       string
	configFile      string
	seed            int64
	silent          bool
	noColor         bool
	checkpointDir   string
	resume          bool
	clearCheckpoint bool

	loadConfig      configLoaderFunc
	initObs         observabilityInitFunc
	loadGraph       graphLoaderFunc
	newOrchestrator orchestratorFactory
}

// NewRunCommand creates the run command (spec §0/§2: the orchestrator's
// CLI entrypoint).
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(config.Load, initObservability, loadGraphFile, newDefaultOrchestrator)
}

func newRunCommandWithDeps(
	loadConfig configLoaderFunc,
	initObs observabilityInitFunc,
	loadGraph graphLoaderFunc,
	newOrchestrator orchestratorFactory,
) *cobra.Command {
	rc := &RunCommand{
		loadConfig:      loadConfig,
		initObs:         initObs,
		loadGraph:       loadGraph,
		newOrchestrator: newOrchestrator,
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full analyze/partition/schedule/dispatch pipeline",
		Long:  "Run the full pipeline over a graph+program description, producing a rounds plan and a performance report.",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.graphPath, "graph", "", "Path to the JSON graph+program description (required)")
	cmd.Flags().StringVar(&rc.configFile, "config", "", "Configuration file path (default: corepipe.yaml in CWD or /etc/corepipe)")
	cmd.Flags().Int64Var(&rc.seed, "seed", 0, "Random seed for partitioning (0 = derive from current time)")
	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Suppress progress output")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored status output")
	cmd.Flags().StringVar(&rc.checkpointDir, "checkpoint-dir", "", "Checkpoint directory (default: ~/.corepipe/checkpoints)")
	cmd.Flags().BoolVar(&rc.resume, "resume", false, "Resume partitioning from a checkpoint if one exists")
	cmd.Flags().BoolVar(&rc.clearCheckpoint, "clear-checkpoint", false, "Clear any existing checkpoint before running")

	_ = cmd.MarkFlagRequired("graph")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	if rc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := rc.loadConfig(rc.configFile)
	if err != nil {
		return err
	}

	providers, err := rc.initObs(cfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *observability.MetricsServer

	if cfg.Logging.MetricsAddr != "" {
		metricsServer, err = observability.NewMetricsServer(cfg.Logging.MetricsAddr, providers.MetricsHandler)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	defer func() {
		if metricsServer != nil {
			if closeErr := metricsServer.Close(ctx); closeErr != nil {
				providers.Logger.Warn("metrics server shutdown failed", "error", closeErr)
			}
		}

		if shutdownErr := providers.Shutdown(ctx); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	progressf(rc.silent, "loading graph from %s", rc.graphPath)

	inst, prog, err := rc.loadGraph(rc.graphPath)
	if err != nil {
		return err
	}

	ckpt, err := rc.buildCheckpointManager(cfg)
	if err != nil {
		return err
	}

	meter, err := newPerfMeter(providers, cfg.Perf)
	if err != nil {
		return fmt.Errorf("init perf meter: %w", err)
	}

	seed := rc.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	deps := orchestrator.Dependencies{
		Program:    prog,
		Instance:   inst,
		Dispatcher: noopAbilityDispatcher{},
		Simulate:   archivingSimulate(cfg.Output.BlobDir, newSimulateFunc(cfg.Sim)),
	}

	orch := rc.newOrchestrator(*cfg, deps, providers, meter, ckpt, rand.New(rand.NewSource(seed)), rc.resume) //nolint:gosec // partitioning randomness, not a secret.

	progressf(rc.silent, "starting run dpu_num=%d mapping=%s", cfg.Cluster.DPUNum, cfg.Cluster.Mapping)

	result, err := orch.Run(ctx)
	if err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "run failed: %v\n", err) //nolint:errcheck // best-effort status output.

		return err
	}

	progressf(rc.silent, "run complete rounds=%d cross_dpu_jumps=%d", len(result.Plan.Rounds), result.Report.TotalCrossDPUJumps())

	if err := writeRoundsPlan(cfg.Output.RoundsPlanPath, result.Plan); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "rounds plan:", cfg.Output.RoundsPlanPath) //nolint:errcheck // best-effort status output.
	fmt.Fprintln(cmd.OutOrStdout(), result.Report.Render())

	return nil
}

func (rc *RunCommand) buildCheckpointManager(cfg *config.Config) (*checkpoint.Manager, error) {
	baseDir := rc.checkpointDir
	if baseDir == "" {
		baseDir = checkpoint.DefaultDir()
	}

	mgr := checkpoint.NewManager(baseDir, checkpoint.RunHash(string(cfg.Cluster.Mapping), cfg.Cluster.DPUNum))

	if rc.clearCheckpoint {
		if err := mgr.Clear(); err != nil {
			return nil, fmt.Errorf("clear checkpoint: %w", err)
		}
	}

	return mgr, nil
}

func writeRoundsPlan(path string, plan orchestrator.RoundsPlan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rounds plan: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write rounds plan: %w", err)
	}

	return nil
}
