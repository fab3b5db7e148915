package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pimwalk/corepipe/pkg/persist"
)

// MetadataVersion is the current checkpoint metadata format version.
const MetadataVersion = 1

// metadataBasename names the metadata sidecar file, independent of the
// codec's extension (persist.JSONCodec appends ".json").
const metadataBasename = "checkpoint"

// metadataPersister reads and writes the RunMetadata sidecar using the
// shared persist codec package, rather than hand-rolled encoding/json
// calls, so every on-disk pipeline state (partition mapping, run
// metadata) goes through the same save/load contract.
var metadataPersister = persist.NewPersister[RunMetadata](metadataBasename, persist.NewJSONCodec())

// Sentinel errors for checkpoint validation.
var (
	ErrMappingMismatch = errors.New("mapping mismatch")
	ErrPhaseMismatch   = errors.New("phase mismatch")
)

// DefaultDir returns the default checkpoint directory (~/.corepipe/checkpoints).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".corepipe", "checkpoints")
}

// RunHash computes a short hash of the run's identifying parameters (mapping
// kind + DPU count) for use as a directory name.
func RunHash(mappingKind string, dpuNum int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s:%d", mappingKind, dpuNum))

	return hex.EncodeToString(h[:8]) // First 8 bytes = 16 hex chars.
}

// Default retention values.
const (
	DefaultMaxAge  = 7 * 24 * time.Hour // 7 days.
	DefaultMaxSize = 1 << 30            // 1GB.
)

// Directory permissions for checkpoints.
const dirPerm = 0o750

// Manager coordinates checkpoints across the orchestrator's resumable phases.
type Manager struct {
	BaseDir string
	RunHash string
	MaxAge  time.Duration
	MaxSize int64
}

// NewManager creates a new checkpoint manager.
func NewManager(baseDir, runHash string) *Manager {
	return &Manager{
		BaseDir: baseDir,
		RunHash: runHash,
		MaxAge:  DefaultMaxAge,
		MaxSize: DefaultMaxSize,
	}
}

// CheckpointDir returns the directory for this run's checkpoint.
func (m *Manager) CheckpointDir() string {
	return filepath.Join(m.BaseDir, m.RunHash)
}

// MetadataPath returns the path to the metadata file.
func (m *Manager) MetadataPath() string {
	return filepath.Join(m.CheckpointDir(), metadataBasename+persist.NewJSONCodec().Extension())
}

// Exists returns true if a valid checkpoint exists.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.MetadataPath())

	return err == nil
}

// Clear removes the checkpoint for the current run.
func (m *Manager) Clear() error {
	cpDir := m.CheckpointDir()

	_, statErr := os.Stat(cpDir)
	if os.IsNotExist(statErr) {
		return nil
	}

	err := os.RemoveAll(cpDir)
	if err != nil {
		return fmt.Errorf("remove checkpoint dir: %w", err)
	}

	return nil
}

// Save persists each given Checkpointable in its own phase directory, along
// with the run metadata and the orchestrator's run state.
func (m *Manager) Save(
	checkpointables []Checkpointable,
	state RunState,
	mappingKind string,
	phaseNames []string,
) error {
	cpDir := m.CheckpointDir()

	err := os.MkdirAll(cpDir, dirPerm)
	if err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	checksums := make(map[string]string)

	for i, cp := range checkpointables {
		phaseDir := filepath.Join(cpDir, fmt.Sprintf("phase_%d", i))

		mkdirErr := os.MkdirAll(phaseDir, dirPerm)
		if mkdirErr != nil {
			return fmt.Errorf("create phase dir: %w", mkdirErr)
		}

		saveErr := cp.SaveCheckpoint(phaseDir)
		if saveErr != nil {
			return fmt.Errorf("save checkpoint for phase %d: %w", i, saveErr)
		}
	}

	meta := RunMetadata{
		Version:     MetadataVersion,
		MappingKind: mappingKind,
		RunHash:     m.RunHash,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Phases:      phaseNames,
		RunState:    state,
		Checksums:   checksums,
	}

	if saveErr := metadataPersister.Save(cpDir, func() *RunMetadata { return &meta }); saveErr != nil {
		return fmt.Errorf("save metadata: %w", saveErr)
	}

	return nil
}

// LoadMetadata loads the checkpoint metadata.
func (m *Manager) LoadMetadata() (*RunMetadata, error) {
	var meta RunMetadata

	err := metadataPersister.Load(m.CheckpointDir(), func(s *RunMetadata) { meta = *s })
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	return &meta, nil
}

// Load restores state for every resumable phase.
func (m *Manager) Load(checkpointables []Checkpointable) (*RunState, error) {
	meta, err := m.LoadMetadata()
	if err != nil {
		return nil, err
	}

	cpDir := m.CheckpointDir()

	for i, cp := range checkpointables {
		phaseDir := filepath.Join(cpDir, fmt.Sprintf("phase_%d", i))

		loadErr := cp.LoadCheckpoint(phaseDir)
		if loadErr != nil {
			return nil, fmt.Errorf("load checkpoint for phase %d: %w", i, loadErr)
		}
	}

	return &meta.RunState, nil
}

// Validate checks if the checkpoint is valid for the given run parameters.
func (m *Manager) Validate(mappingKind string, phaseNames []string) error {
	meta, err := m.LoadMetadata()
	if err != nil {
		return err
	}

	if meta.MappingKind != mappingKind {
		return fmt.Errorf("%w: checkpoint has %q, got %q", ErrMappingMismatch, meta.MappingKind, mappingKind)
	}

	if !stringSlicesEqual(meta.Phases, phaseNames) {
		return fmt.Errorf("%w: checkpoint has %v, got %v", ErrPhaseMismatch, meta.Phases, phaseNames)
	}

	return nil
}

// stringSlicesEqual compares two string slices for equality.
func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
