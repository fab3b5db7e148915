package partition

import "github.com/pimwalk/corepipe/pkg/persist"

const checkpointBasename = "partition"

// MappingCheckpoint adapts a frozen partitioning table to
// pkg/checkpoint.Checkpointable so the orchestrator can persist it after
// partitioning and resume it in a later run without this package importing checkpoint
// directly (checkpoint.Checkpointable is satisfied structurally).
type MappingCheckpoint struct {
	Mapping map[int64]int
}

var mappingCodec = persist.NewJSONCodec()

// SaveCheckpoint persists the mapping to dir.
func (m *MappingCheckpoint) SaveCheckpoint(dir string) error {
	return persist.SaveState(dir, checkpointBasename, mappingCodec, m)
}

// LoadCheckpoint restores the mapping from dir.
func (m *MappingCheckpoint) LoadCheckpoint(dir string) error {
	return persist.LoadState(dir, checkpointBasename, mappingCodec, m)
}

// CheckpointSize estimates the serialized size: one dpu id per node,
// roughly 16 bytes per entry once JSON-encoded.
func (m *MappingCheckpoint) CheckpointSize() int64 {
	const bytesPerEntry = 16

	return int64(len(m.Mapping) * bytesPerEntry)
}
