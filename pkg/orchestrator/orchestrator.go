// Package orchestrator implements Orchestrator (C13): the pipeline
// driver that wires StaticContext, VisitAnalyzer, TTTBuilder,
// TTGCondenser, Partitioner, WalkerRunner, TaskMgr, DPUMemoryLayout,
// and PerfMeter into one end-to-end run (spec §2).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pimwalk/corepipe/pkg/checkpoint"
	"github.com/pimwalk/corepipe/pkg/config"
	"github.com/pimwalk/corepipe/pkg/corepiperr"
	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/observability"
	"github.com/pimwalk/corepipe/pkg/partition"
	"github.com/pimwalk/corepipe/pkg/perf"
	"github.com/pimwalk/corepipe/pkg/runner"
	"github.com/pimwalk/corepipe/pkg/taskmgr"
	"github.com/pimwalk/corepipe/pkg/ttg"
	"github.com/pimwalk/corepipe/pkg/ttt"
	"github.com/pimwalk/corepipe/pkg/visitanalyze"
)

// SimulateFunc dispatches one DPU's round dump to the external
// backing-simulator collaborator (spec §5/§6). A non-nil error aborts
// the whole run with a WorkerFailure-kind error — no retries.
type SimulateFunc func(ctx context.Context, dpu, round int, dump []byte) error

// Dependencies are the read-only collaborators a run needs: the graph
// program and instance (spec §6), the ability dispatcher, and the
// simulator backend. WalkerPayload resolves a walker's serialized
// state for the memory layout; a nil func yields an empty payload.
type Dependencies struct {
	Program       graphmodel.GraphProgram
	Instance      graphmodel.GraphInstance
	Dispatcher    graphmodel.AbilityDispatcher
	Simulate      SimulateFunc
	WalkerPayload func(walkerID int64) []byte
}

// Orchestrator drives one full pipeline run.
type Orchestrator struct {
	cfg    config.Config
	deps   Dependencies
	tracer trace.Tracer
	logger *slog.Logger
	meter  *perf.Meter
	rng    *rand.Rand
	ckpt   *checkpoint.Manager
	resume bool

	crossDPUJumps int
}

// New creates an Orchestrator. meter and ckpt are optional (nil
// disables perf instrumentation / checkpointing respectively).
func New(cfg config.Config, deps Dependencies, tracer trace.Tracer, logger *slog.Logger, meter *perf.Meter, rng *rand.Rand, ckpt *checkpoint.Manager) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{cfg: cfg, deps: deps, tracer: tracer, logger: logger, meter: meter, rng: rng, ckpt: ckpt}
}

// WithResume enables resuming the frozen partitioning table from ckpt
// when one exists for this run's mapping kind and DPU count, instead of
// recomputing it (spec's partial-run checkpointing supplement). A no-op
// if the Orchestrator has no checkpoint manager.
func (o *Orchestrator) WithResume(resume bool) *Orchestrator {
	o.resume = resume

	return o
}

// Result is everything a completed run produced.
type Result struct {
	Mapping map[int64]int
	Plan    RoundsPlan
	Report  perf.Report
}

// Run executes the full pipeline: analyze, expand, condense, partition,
// walk, schedule, lay out memory, and dispatch to the simulator,
// accumulating a performance report along the way.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "corepipe.run")
	defer span.End()

	staticCtx, err := graphmodel.Build(o.deps.Instance)
	if err != nil {
		return nil, err
	}

	merged, walkerTraces, err := o.analyzeAndExpand(staticCtx)
	if err != nil {
		return nil, err
	}

	mapping, err := o.partitionGraph(ctx, staticCtx, merged)
	if err != nil {
		return nil, err
	}

	walkers := buildWalkers(walkerTraces)

	if err := o.runWalkers(staticCtx, mapping, walkers); err != nil {
		return nil, err
	}

	rounds, err := o.scheduleTasks(mapping, walkers)
	if err != nil {
		return nil, err
	}

	plan := buildPlan(rounds)
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	report, err := o.executeRounds(ctx, staticCtx, rounds)
	if err != nil {
		return nil, err
	}

	return &Result{Mapping: mapping, Plan: plan, Report: report}, nil
}

// analyzeAndExpand runs VisitAnalyzer + TTTBuilder + TTGCondenser for
// every walker type against every configured start node, merging the
// resulting TTGs into one graph for the Partitioner and recording each
// walker's concrete execution trace (its TTT's conditional-child path).
func (o *Orchestrator) analyzeAndExpand(staticCtx *graphmodel.StaticContext) (*ttg.Graph, map[int64][]int64, error) {
	knownEdgeTypes := staticCtx.KnownEdgeTypes()

	opts := ttt.Options{
		TargetNodeCount:          o.cfg.Analysis.TargetNodeCount,
		AsyncVisitSpawnsParallel: o.cfg.Analysis.AsyncVisitSpawnsParallel,
		VisitInsertionBatch:      o.cfg.Analysis.VisitInsertionBatch,
	}

	var graphs []*ttg.Graph

	walkerTraces := make(map[int64][]int64)

	var nextWalkerID int64

	for _, w := range o.deps.Program.Walkers() {
		sequences, err := visitanalyze.Analyze(w, knownEdgeTypes)
		if err != nil {
			return nil, nil, err
		}

		analysis := sequenceAnalysis(sequences)

		for _, start := range staticCtx.StartNodes() {
			tree := ttt.Build(start, staticCtx, analysis, opts)
			graphs = append(graphs, ttg.Condense(tree))

			nextWalkerID++
			walkerTraces[nextWalkerID] = concretePath(tree)
		}
	}

	return ttg.Merge(graphs...), walkerTraces, nil
}

func (o *Orchestrator) partitionGraph(ctx context.Context, staticCtx *graphmodel.StaticContext, merged *ttg.Graph) (map[int64]int, error) {
	_, span := o.tracer.Start(ctx, "corepipe.partition")
	defer span.End()

	if o.resume && o.ckpt != nil {
		mc := partition.MappingCheckpoint{}

		err := o.ckpt.Validate(string(o.cfg.Cluster.Mapping), []string{"partition"})
		if err == nil {
			if _, loadErr := o.ckpt.Load([]checkpoint.Checkpointable{&mc}); loadErr == nil {
				o.logger.Info("resumed partitioning from checkpoint")

				return mc.Mapping, nil
			}
		}
	}

	sizeFn := func(id int64) int64 {
		n, _ := staticCtx.Node(id)

		return int64(n.SizeBytes())
	}

	result := partition.Run(partition.Kind(o.cfg.Cluster.Mapping), staticCtx, merged, o.cfg.Cluster.DPUNum, o.cfg.Cluster.UsableSize(), sizeFn, o.rng)
	if !result.IsOk() {
		return nil, result.Err
	}

	span.SetAttributes(attribute.Int("partition.dpu_count", o.cfg.Cluster.DPUNum))

	if o.ckpt != nil {
		mc := partition.MappingCheckpoint{Mapping: result.Mapping}

		state := checkpoint.RunState{PartitioningDone: true}

		err := o.ckpt.Save([]checkpoint.Checkpointable{&mc}, state, string(o.cfg.Cluster.Mapping), []string{"partition"})
		if err != nil {
			o.logger.Warn("checkpoint save failed", "error", err)
		}
	}

	return result.Mapping, nil
}

func (o *Orchestrator) runWalkers(staticCtx *graphmodel.StaticContext, mapping map[int64]int, walkers []*runner.Walker) error {
	nodeTypeOf := func(id int64) (string, error) {
		t, ok := staticCtx.NodeType(id)
		if !ok {
			return "", corepiperr.New(corepiperr.KindLookup, fmt.Sprintf("node %d has no type", id))
		}

		return t, nil
	}

	rnr := runner.New(mappingFunc(mapping), o.deps.Dispatcher)
	sched := runner.NewScheduler(rnr, o.cfg.Cluster.MaxDPUThreadNum)

	for _, w := range walkers {
		sched.Register(w)
	}

	if err := sched.Run(nodeTypeOf); err != nil {
		return err
	}

	o.crossDPUJumps = rnr.CrossDPUJumps()

	return nil
}

func (o *Orchestrator) scheduleTasks(mapping map[int64]int, walkers []*runner.Walker) ([][]*taskmgr.TaskSet, error) {
	mgr := taskmgr.NewManager(o.cfg.Cluster.MaxDPUThreadNum)

	for _, w := range walkers {
		segments := segmentTrace(w.Trace, mapping)

		var prevID int64

		for _, seg := range segments {
			id, runID := mgr.NextTaskID()
			mgr.AddTask(&taskmgr.Task{ID: id, RunID: runID, DPU: seg.dpu, WalkerID: w.ID, Trace: seg.nodes}, prevID)
			prevID = id
		}
	}

	return mgr.ScheduleAll()
}

func (o *Orchestrator) executeRounds(ctx context.Context, staticCtx *graphmodel.StaticContext, rounds [][]*taskmgr.TaskSet) (perf.Report, error) {
	pool := newWorkerPool(o.cfg.Sim.NSim)
	report := perf.Report{}

	jumpsSoFar := 0

	for roundIdx, sets := range rounds {
		roundStart := time.Now()

		for _, ts := range sets {
			ts := ts

			pool.Go(func() error {
				roundCtx, sp := o.tracer.Start(ctx, "corepipe.round")
				defer sp.End()

				roundCtx = observability.WithRoundAttrs(roundCtx, roundIdx, ts.DPU)

				memCtx, buildErr := buildMemoryLayout(staticCtx, ts, o.cfg.Cluster.MaxDPUThreadNum, o.deps.WalkerPayload)
				if buildErr != nil {
					return buildErr
				}

				if o.deps.Simulate != nil {
					o.logger.DebugContext(roundCtx, "dispatching task set to simulator", "tasks", len(ts.Tasks))

					if simErr := o.deps.Simulate(roundCtx, ts.DPU, roundIdx, memCtx.Dump()); simErr != nil {
						return corepiperr.Wrap(corepiperr.KindWorkerFailure, "simulator worker failed", simErr)
					}
				}

				return nil
			})
		}

		if err := pool.Wait(); err != nil {
			return perf.Report{}, err
		}

		duration := time.Since(roundStart)
		jumpsThisRound := o.crossDPUJumps - jumpsSoFar
		jumpsSoFar = o.crossDPUJumps

		perfCfg := perf.Config{DPUBandwidth: o.cfg.Perf.DPUBandwidth, DPUClock: o.cfg.Perf.DPUClock}

		computeTime := perf.ComputeTime(int64(roundCycles(sets)), perfCfg)
		transferTime := perf.TransferTime(jumpsThisRound, averageWalkerBytes(sets), perfCfg)

		if o.meter != nil {
			o.meter.RecordRound(ctx, roundIdx, jumpsThisRound, duration, computeTime)
		}

		report.Rounds = append(report.Rounds, perf.RoundStat{
			Round:         roundIdx,
			CrossDPUJumps: jumpsThisRound,
			TransferTime:  transferTime,
			ComputeTime:   computeTime,
			WalkerBytes:   averageWalkerBytes(sets),
		})
	}

	return report, nil
}
