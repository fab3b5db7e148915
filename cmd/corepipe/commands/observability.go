package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pimwalk/corepipe/pkg/config"
	"github.com/pimwalk/corepipe/pkg/observability"
	"github.com/pimwalk/corepipe/pkg/version"
)

// initObservability builds OTel tracing/metrics and a structured logger
// from a loaded Config's LoggingConfig before the pipeline starts.
func initObservability(cfg *config.Config) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Logging.OTLPEndpoint
	obsCfg.Mode = observability.ModeCLI
	obsCfg.LogJSON = cfg.Logging.Format == "json"

	if lvl, ok := parseLogLevel(cfg.Logging.Level); ok {
		obsCfg.LogLevel = lvl
	}

	return observability.Init(obsCfg)
}

func parseLogLevel(s string) (slog.Level, bool) {
	switch s {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func progressf(silent bool, format string, args ...any) {
	if silent {
		return
	}

	_, _ = fmt.Fprintf(os.Stderr, "progress: "+format+"\n", args...)
}
