package commands

import (
	"github.com/pimwalk/corepipe/pkg/config"
	"github.com/pimwalk/corepipe/pkg/observability"
	"github.com/pimwalk/corepipe/pkg/perf"
)

// roundSmoothingAlpha gives the most recent round a 30% weight against
// the running average exposed by Meter.SmoothedRoundSeconds, matching the
// teacher's exponential-moving-average convention for noisy per-sample
// timings (pkg/alg/stats.EMA).
const roundSmoothingAlpha = 0.3

func newPerfMeter(providers observability.Providers, perfCfg config.PerfConfig) (*perf.Meter, error) {
	if providers.Meter == nil {
		return nil, nil //nolint:nilnil // nil meter is a valid "no instrumentation" state.
	}

	return perf.NewMeter(providers.Meter, perf.Config{DPUBandwidth: perfCfg.DPUBandwidth, DPUClock: perfCfg.DPUClock}, roundSmoothingAlpha)
}
