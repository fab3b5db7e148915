// Package config provides configuration loading and validation for the corepipe pipeline.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Mapping selects which partitioner variant (C8) the orchestrator constructs.
type Mapping string

// Supported partitioner variants, per spec.md §6 MAPPING.
const (
	MappingRound  Mapping = "ROUND"
	MappingRandom Mapping = "RANDOM"
	MappingFennel Mapping = "FENNEL"
)

// Sentinel validation errors. Each corresponds to a ConfigurationError case in spec.md §7.
var (
	ErrUnknownMapping      = errors.New("unknown MAPPING value")
	ErrInvalidDPUNum       = errors.New("DPU_NUM must be positive")
	ErrInvalidSizeLimit    = errors.New("DPU_SIZE_LIMIT must be positive")
	ErrInvalidReservedSize = errors.New("RESERVED_SIZE must be non-negative and less than DPU_SIZE_LIMIT")
	ErrInvalidThreadNum    = errors.New("MAX_DPU_THREAD_NUM must be positive")
	ErrInvalidNSim         = errors.New("N_SIM must be positive")
	ErrInvalidTargetNodes  = errors.New("TARGET_NODE_COUNT must be positive")
)

// Config holds all configuration for a corepipe run.
type Config struct {
	Cluster  ClusterConfig  `mapstructure:"cluster"`
	Sim      SimConfig      `mapstructure:"sim"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Perf     PerfConfig     `mapstructure:"perf"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// PerfConfig holds the hardware constants PerfMeter's transfer/compute
// time estimates are built from (spec §4.8).
type PerfConfig struct {
	DPUBandwidth float64 `mapstructure:"dpu_bandwidth"`
	DPUClock     float64 `mapstructure:"dpu_clock"`
}

// ClusterConfig describes the target DPU cluster's shape and capacity limits.
type ClusterConfig struct {
	Mapping         Mapping `mapstructure:"mapping"`
	DPUNum          int     `mapstructure:"dpu_num"`
	DPUSizeLimit    int64   `mapstructure:"dpu_size_limit"`
	ReservedSize    int64   `mapstructure:"reserved_size"`
	MaxDPUThreadNum int     `mapstructure:"max_dpu_thread_num"`
}

// SimConfig configures the bounded worker pool that dispatches TaskSets to the
// external backing-simulator collaborator (spec.md §5/§6).
type SimConfig struct {
	NSim       int    `mapstructure:"n_sim"`
	SimCommand string `mapstructure:"sim_command"`
	SimTimeout string `mapstructure:"sim_timeout"`
}

// AnalysisConfig configures the symbolic walker expansion (C6).
type AnalysisConfig struct {
	TargetNodeCount          int  `mapstructure:"target_node_count"`
	AsyncVisitSpawnsParallel bool `mapstructure:"async_visit_spawns_parallel"`
	VisitInsertionBatch      bool `mapstructure:"visit_insertion_batch"`
}

// LoggingConfig holds logging and tracing configuration.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	// MetricsAddr, when set, serves the Prometheus /metrics scrape
	// endpoint at this address for the lifetime of the run. Empty
	// leaves metrics recorded but unscraped.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// OutputConfig controls where per-round artifacts land.
type OutputConfig struct {
	BlobDir        string `mapstructure:"blob_dir"`
	RoundsPlanPath string `mapstructure:"rounds_plan_path"`
	ReportFormat   string `mapstructure:"report_format"`
}

// UsableSize is the byte budget available on a DPU after reserving RESERVED_SIZE bytes.
func (c ClusterConfig) UsableSize() int64 {
	return c.DPUSizeLimit - c.ReservedSize
}

// Load reads configuration from an optional file and from the process environment
// (MAPPING, DPU_NUM, DPU_SIZE_LIMIT, RESERVED_SIZE, MAX_DPU_THREAD_NUM, N_SIM,
// TARGET_NODE_COUNT per spec.md §6), validates it, and returns the result.
func Load(configPath string) (*Config, error) {
	cfg, err := LoadRaw(configPath)
	if err != nil {
		return nil, err
	}

	if validateErr := Validate(cfg); validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return cfg, nil
}

// LoadRaw reads configuration the same way Load does but skips
// validation, so a caller that wants every violation (e.g. the
// validate-config CLI command) can run ValidateAll itself instead of
// stopping at Load's first error.
func LoadRaw(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("corepipe")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("/etc/corepipe")
	}

	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(viperCfg)

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	return &cfg, nil
}

// bindEnv binds the §6 environment variable table directly onto their mapstructure
// keys, since their bare names (DPU_NUM, N_SIM, ...) don't follow the nested dotted
// form AutomaticEnv would otherwise expect.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("cluster.mapping", "MAPPING")
	_ = v.BindEnv("cluster.dpu_num", "DPU_NUM")
	_ = v.BindEnv("cluster.dpu_size_limit", "DPU_SIZE_LIMIT")
	_ = v.BindEnv("cluster.reserved_size", "RESERVED_SIZE")
	_ = v.BindEnv("cluster.max_dpu_thread_num", "MAX_DPU_THREAD_NUM")
	_ = v.BindEnv("sim.n_sim", "N_SIM")
	_ = v.BindEnv("analysis.target_node_count", "TARGET_NODE_COUNT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cluster.mapping", string(MappingRound))
	v.SetDefault("cluster.dpu_num", DefaultDPUNum)
	v.SetDefault("cluster.dpu_size_limit", DefaultDPUSizeLimit)
	v.SetDefault("cluster.reserved_size", DefaultReservedSize)
	v.SetDefault("cluster.max_dpu_thread_num", DefaultMaxDPUThreadNum)

	v.SetDefault("sim.n_sim", DefaultNSim)
	v.SetDefault("sim.sim_command", "")
	v.SetDefault("sim.sim_timeout", DefaultSimTimeout)

	v.SetDefault("analysis.target_node_count", DefaultTargetNodeCount)
	v.SetDefault("analysis.async_visit_spawns_parallel", DefaultAsyncVisitSpawnsParallel)
	v.SetDefault("analysis.visit_insertion_batch", DefaultVisitInsertionBatch)

	v.SetDefault("perf.dpu_bandwidth", DefaultDPUBandwidth)
	v.SetDefault("perf.dpu_clock", DefaultDPUClock)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("logging.otlp_endpoint", "")
	v.SetDefault("logging.metrics_addr", "")

	v.SetDefault("output.blob_dir", DefaultBlobDir)
	v.SetDefault("output.rounds_plan_path", DefaultRoundsPlanPath)
	v.SetDefault("output.report_format", DefaultReportFormat)
}

// Validate checks every field the §7 ConfigurationError kind covers, reporting
// the first violation found. Callers that want every violation (e.g. the
// validate-config CLI command) should call ValidateAll instead.
func Validate(cfg *Config) error {
	errs := ValidateAll(cfg)
	if len(errs) == 0 {
		return nil
	}

	return errs[0]
}

// ValidateAll validates every field and returns every violation found, rather than
// stopping at the first (used by the validate-config CLI command in SPEC_FULL §3).
func ValidateAll(cfg *Config) []error {
	var errs []error

	switch cfg.Cluster.Mapping {
	case MappingRound, MappingRandom, MappingFennel:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownMapping, cfg.Cluster.Mapping))
	}

	if cfg.Cluster.DPUNum <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidDPUNum, cfg.Cluster.DPUNum))
	}

	if cfg.Cluster.DPUSizeLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidSizeLimit, cfg.Cluster.DPUSizeLimit))
	}

	if cfg.Cluster.ReservedSize < 0 || cfg.Cluster.ReservedSize >= cfg.Cluster.DPUSizeLimit {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidReservedSize, cfg.Cluster.ReservedSize))
	}

	if cfg.Cluster.MaxDPUThreadNum <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidThreadNum, cfg.Cluster.MaxDPUThreadNum))
	}

	if cfg.Sim.NSim <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidNSim, cfg.Sim.NSim))
	}

	if cfg.Analysis.TargetNodeCount <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidTargetNodes, cfg.Analysis.TargetNodeCount))
	}

	return errs
}
