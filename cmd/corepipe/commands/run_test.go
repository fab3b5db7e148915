package commands

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimwalk/corepipe/pkg/checkpoint"
	"github.com/pimwalk/corepipe/pkg/config"
	"github.com/pimwalk/corepipe/pkg/graphmodel"
	"github.com/pimwalk/corepipe/pkg/observability"
	"github.com/pimwalk/corepipe/pkg/orchestrator"
	"github.com/pimwalk/corepipe/pkg/perf"
)

type fakeRunner struct {
	result *orchestrator.Result
	err    error
}

func (f fakeRunner) Run(context.Context) (*orchestrator.Result, error) {
	return f.result, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Cluster: config.ClusterConfig{Mapping: config.MappingRound, DPUNum: 2, DPUSizeLimit: 1024, MaxDPUThreadNum: 1},
		Sim:     config.SimConfig{NSim: 1},
		Output:  config.OutputConfig{RoundsPlanPath: t.TempDir() + "/plan.json", BlobDir: t.TempDir()},
	}
}

func testProviders() observability.Providers {
	return observability.Providers{
		Logger:   slog.Default(),
		Shutdown: func(context.Context) error { return nil },
	}
}

func TestRunCommandSuccess(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	wantResult := &orchestrator.Result{
		Mapping: map[int64]int{1: 0},
		Plan:    orchestrator.RoundsPlan{Rounds: nil},
		Report:  perf.Report{Rounds: []perf.RoundStat{{Round: 0, CrossDPUJumps: 3}}},
	}

	var gotResume bool

	factory := func(
		_ config.Config, _ orchestrator.Dependencies, _ observability.Providers,
		_ *perf.Meter, _ *checkpoint.Manager, _ *rand.Rand, resume bool,
	) pipelineRunner {
		gotResume = resume

		return fakeRunner{result: wantResult}
	}

	cmd := newRunCommandWithDeps(
		func(string) (*config.Config, error) { return cfg, nil },
		func(*config.Config) (observability.Providers, error) { return testProviders(), nil },
		func(string) (graphmodel.GraphInstance, graphmodel.GraphProgram, error) { return nil, nil, nil },
		factory,
	)

	cmd.SetArgs([]string{"--graph", "graph.json", "--resume"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.True(t, gotResume)
}

func TestRunCommandConfigLoadError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("bad config")

	cmd := newRunCommandWithDeps(
		func(string) (*config.Config, error) { return nil, wantErr },
		func(*config.Config) (observability.Providers, error) { return testProviders(), nil },
		func(string) (graphmodel.GraphInstance, graphmodel.GraphProgram, error) { return nil, nil, nil },
		func(config.Config, orchestrator.Dependencies, observability.Providers, *perf.Meter, *checkpoint.Manager, *rand.Rand, bool) pipelineRunner {
			t.Fatal("orchestrator factory should not be called when config load fails")

			return nil
		},
	)

	cmd.SetArgs([]string{"--graph", "graph.json"})

	err := cmd.Execute()
	require.ErrorIs(t, err, wantErr)
}

func TestRunCommandPipelineError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	wantErr := errors.New("simulator exploded")

	cmd := newRunCommandWithDeps(
		func(string) (*config.Config, error) { return cfg, nil },
		func(*config.Config) (observability.Providers, error) { return testProviders(), nil },
		func(string) (graphmodel.GraphInstance, graphmodel.GraphProgram, error) { return nil, nil, nil },
		func(config.Config, orchestrator.Dependencies, observability.Providers, *perf.Meter, *checkpoint.Manager, *rand.Rand, bool) pipelineRunner {
			return fakeRunner{err: wantErr}
		},
	)

	cmd.SetArgs([]string{"--graph", "graph.json"})

	err := cmd.Execute()
	require.ErrorIs(t, err, wantErr)
}

func TestRunCommandGraphLoadError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	wantErr := errors.New("no such file")

	cmd := newRunCommandWithDeps(
		func(string) (*config.Config, error) { return cfg, nil },
		func(*config.Config) (observability.Providers, error) { return testProviders(), nil },
		func(string) (graphmodel.GraphInstance, graphmodel.GraphProgram, error) { return nil, nil, wantErr },
		func(config.Config, orchestrator.Dependencies, observability.Providers, *perf.Meter, *checkpoint.Manager, *rand.Rand, bool) pipelineRunner {
			t.Fatal("orchestrator factory should not be called when graph load fails")

			return nil
		},
	)

	cmd.SetArgs([]string{"--graph", "missing.json"})

	err := cmd.Execute()
	require.ErrorIs(t, err, wantErr)
}

func TestRunCommandRequiresGraphFlag(t *testing.T) {
	t.Parallel()

	cmd := NewRunCommand()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
}
