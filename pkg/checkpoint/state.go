// Package checkpoint provides state persistence for a resumable orchestrator run.
package checkpoint

// RunState records orchestrator progress. The orchestrator's partition
// checkpoint sets only PartitioningDone; it leaves the round fields at their
// zero values. Partitioning and the
// TTT/TTG are frozen, read-only state once computed (spec §3/§5), so they are
// exactly the parts of a run that are safe to persist and later resume from.
type RunState struct {
	TargetNodeCount  int    `json:"target_node_count"`
	CompletedRounds  int    `json:"completed_rounds"`
	TotalRounds      int    `json:"total_rounds"`
	LastTaskSetID    string `json:"last_task_set_id"`
	PartitioningDone bool   `json:"partitioning_done"`
}

// RunMetadata holds checkpoint metadata for validation and resume. Named
// distinctly from the pipeline's own wire-format Metadata header (the
// per-round DPU memory record) since the two are unrelated and can appear
// together in the orchestrator's imports.
type RunMetadata struct {
	Version     int               `json:"version"`
	MappingKind string            `json:"mapping_kind"`
	DPUNum      int               `json:"dpu_num"`
	RunHash     string            `json:"run_hash"`
	CreatedAt   string            `json:"created_at"`
	Phases      []string          `json:"phases"`
	RunState    RunState          `json:"run_state"`
	Checksums   map[string]string `json:"checksums"`
}
