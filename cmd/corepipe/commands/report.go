package commands

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pimwalk/corepipe/pkg/config"
	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/partition"
	"github.com/pimwalk/corepipe/pkg/ttg"
	"github.com/pimwalk/corepipe/pkg/ttt"
	"github.com/pimwalk/corepipe/pkg/visitanalyze"
)

const stagePartition = "partition"

// NewReportCommand creates the dry-run report command: it runs a prefix
// of the pipeline and prints a capacity-planning summary without
// dispatching to a simulator (SPEC_FULL §3's dry-run partition report).
func NewReportCommand() *cobra.Command {
	return newReportCommandWithDeps(config.Load, loadGraphFile)
}

func newReportCommandWithDeps(loadConfig configLoaderFunc, loadGraph graphLoaderFunc) *cobra.Command {
	var (
		graphPath  string
		configFile string
		stage      string
		seed       int64
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run a prefix of the pipeline and print a capacity-planning summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}

			if stage != stagePartition {
				return fmt.Errorf("unsupported --stage %q (only %q is supported)", stage, stagePartition)
			}

			return runPartitionReport(cmd, loadConfig, loadGraph, graphPath, configFile, seed)
		},
	}

	cmd.Flags().StringVar(&graphPath, "graph", "", "Path to the JSON graph+program description (required)")
	cmd.Flags().StringVar(&configFile, "config", "", "Configuration file path (default: corepipe.yaml in CWD or /etc/corepipe)")
	cmd.Flags().StringVar(&stage, "stage", stagePartition, "Pipeline prefix to run and report on (only \"partition\" is supported)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for partitioning (0 = derive from current time)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored status output")

	_ = cmd.MarkFlagRequired("graph")

	return cmd
}

func runPartitionReport(cmd *cobra.Command, loadConfig configLoaderFunc, loadGraph graphLoaderFunc, graphPath, configFile string, seed int64) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	inst, prog, err := loadGraph(graphPath)
	if err != nil {
		return err
	}

	staticCtx, err := graphmodel.Build(inst)
	if err != nil {
		return err
	}

	merged, err := mergeWalkerTTGs(prog, staticCtx, cfg.Analysis)
	if err != nil {
		return err
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // partitioning randomness, not a secret.

	sizeFn := func(id int64) int64 {
		n, _ := staticCtx.Node(id)

		return int64(n.SizeBytes())
	}

	result := partition.Run(partition.Kind(cfg.Cluster.Mapping), staticCtx, merged, cfg.Cluster.DPUNum, cfg.Cluster.UsableSize(), sizeFn, rng)
	if !result.IsOk() {
		color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "partitioning failed: %v\n", result.Err) //nolint:errcheck // best-effort status output.

		return result.Err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderOccupancy(result.Mapping, staticCtx, cfg.Cluster.DPUNum, cfg.Cluster.UsableSize()))

	return nil
}

// mergeWalkerTTGs runs VisitAnalyzer + TTTBuilder + TTGCondenser for
// every walker type and start node, mirroring orchestrator.analyzeAndExpand
// but without recording runtime traces — this report only needs the
// merged TTG for partitioning.
func mergeWalkerTTGs(prog graphmodel.GraphProgram, staticCtx *graphmodel.StaticContext, analysisCfg config.AnalysisConfig) (*ttg.Graph, error) {
	knownEdgeTypes := staticCtx.KnownEdgeTypes()

	opts := ttt.Options{
		TargetNodeCount:          analysisCfg.TargetNodeCount,
		AsyncVisitSpawnsParallel: analysisCfg.AsyncVisitSpawnsParallel,
		VisitInsertionBatch:      analysisCfg.VisitInsertionBatch,
	}

	var graphs []*ttg.Graph

	for _, w := range prog.Walkers() {
		sequences, err := visitanalyze.Analyze(w, knownEdgeTypes)
		if err != nil {
			return nil, err
		}

		analysis := reportAnalysis(sequences)

		for _, start := range staticCtx.StartNodes() {
			tree := ttt.Build(start, staticCtx, analysis, opts)
			graphs = append(graphs, ttg.Condense(tree))
		}
	}

	return ttg.Merge(graphs...), nil
}

type reportAnalysis map[string][]graphmodel.VisitSequence

func (r reportAnalysis) SequencesFor(nodeType string) ([]graphmodel.VisitSequence, bool) {
	seqs, ok := r[nodeType]

	return seqs, ok
}

func renderOccupancy(mapping map[int64]int, staticCtx *graphmodel.StaticContext, numDPUs int, capacity int64) string {
	occupied := make([]int64, numDPUs)

	for nodeID, dpu := range mapping {
		if n, ok := staticCtx.Node(nodeID); ok {
			occupied[dpu] += int64(n.SizeBytes())
		}
	}

	var b strings.Builder

	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.AppendHeader(table.Row{"DPU", "Nodes", "Bytes", "Capacity", "Occupancy %"})

	counts := make([]int, numDPUs)
	for _, dpu := range mapping {
		counts[dpu]++
	}

	for dpu := 0; dpu < numDPUs; dpu++ {
		pct := 0.0
		if capacity > 0 {
			pct = float64(occupied[dpu]) / float64(capacity) * percentScale
		}

		t.AppendRow(table.Row{dpu, counts[dpu], occupied[dpu], capacity, fmt.Sprintf("%.1f%%", pct)})
	}

	t.Render()

	return b.String()
}

const percentScale = 100.0
