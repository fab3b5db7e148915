package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/pimwalk/corepipe/pkg/config"
	"github.com/pimwalk/corepipe/pkg/orchestrator"
)

// newSimulateFunc builds the orchestrator's external-simulator
// collaborator from SimConfig.SimCommand: the dump is piped to the
// command's stdin and the command's exit status determines success.
// An empty SimCommand means no simulator is configured; the orchestrator
// skips dispatch entirely in that case.
func newSimulateFunc(sim config.SimConfig) orchestrator.SimulateFunc {
	if sim.SimCommand == "" {
		return nil
	}

	timeout := defaultSimTimeout

	if sim.SimTimeout != "" {
		if parsed, err := time.ParseDuration(sim.SimTimeout); err == nil {
			timeout = parsed
		}
	}

	return func(ctx context.Context, dpu, round int, dump []byte) error {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(runCtx, sim.SimCommand, fmt.Sprintf("--dpu=%d", dpu), fmt.Sprintf("--round=%d", round))
		cmd.Stdin = bytes.NewReader(dump)

		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("simulator command failed (dpu=%d round=%d): %w: %s", dpu, round, err, out)
		}

		return nil
	}
}

const defaultSimTimeout = 30 * time.Second

// archivingSimulate wraps inner so every round's DPU memory dump is
// lz4-compressed and written under dir before (optionally) being handed
// to the real simulator — the dumps are highly repetitive fixed-width
// records (spec §4.7), so lz4 earns its keep here. A nil inner still
// archives; only the simulator dispatch itself is skipped.
func archivingSimulate(dir string, inner orchestrator.SimulateFunc) orchestrator.SimulateFunc {
	return func(ctx context.Context, dpu, round int, dump []byte) error {
		if dir != "" {
			if err := writeCompressedBlob(dir, dpu, round, dump); err != nil {
				return err
			}
		}

		if inner == nil {
			return nil
		}

		return inner(ctx, dpu, round, dump)
	}
}

func writeCompressedBlob(dir string, dpu, round int, dump []byte) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("round-%04d-dpu-%04d.bin.lz4", round, dpu))

	f, err := os.Create(path) //nolint:gosec // path is built from internal round/dpu indices.
	if err != nil {
		return fmt.Errorf("create blob file: %w", err)
	}
	defer f.Close()

	w := lz4.NewWriter(f)

	if _, writeErr := w.Write(dump); writeErr != nil {
		return fmt.Errorf("compress blob: %w", writeErr)
	}

	return w.Close()
}
