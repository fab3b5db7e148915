// Package config provides configuration loading and validation for the corepipe pipeline.
package config

import "github.com/pimwalk/corepipe/pkg/units"

// Cluster defaults.
const (
	DefaultDPUNum          = 16
	DefaultDPUSizeLimit    = 64 * units.MiB
	DefaultReservedSize    = 4 * units.MiB
	DefaultMaxDPUThreadNum = 16
)

// Simulator pool defaults.
const (
	DefaultNSim       = 4
	DefaultSimTimeout = "5m"
)

// Analysis defaults.
const (
	DefaultTargetNodeCount          = 100_000
	DefaultAsyncVisitSpawnsParallel = true
	DefaultVisitInsertionBatch      = true
)

// Performance-estimate defaults, in bytes/second and Hz respectively —
// representative DPU-to-host interconnect bandwidth and core clock
// figures (spec §4.8).
const (
	DefaultDPUBandwidth = 800 * units.MiB
	DefaultDPUClock     = 400_000_000
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Output defaults.
const (
	DefaultBlobDir        = "./corepipe-out"
	DefaultRoundsPlanPath = "./corepipe-out/rounds.json"
	DefaultReportFormat   = "table"
)

// Checkpoint defaults. Neither Load nor pkg/checkpoint reads them; the
// checkpoint directory used by a run comes from checkpoint.DefaultDir or
// the --checkpoint-dir flag.
const (
	DefaultCheckpointEnabled   = true
	DefaultCheckpointDir       = "./corepipe-out/checkpoint"
	DefaultCheckpointResume    = true
	DefaultCheckpointClearPrev = false
)
