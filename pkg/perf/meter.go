package perf

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pimwalk/corepipe/pkg/alg/stats"
)

const (
	metricCrossDPUJumps  = "corepipe.perf.cross_dpu_jumps"
	metricRoundDuration  = "corepipe.perf.round.duration.seconds"
	metricComputeSeconds = "corepipe.perf.compute.seconds"
)

// Meter records per-round performance signals to an OTel meter and
// keeps a smoothed running estimate of round duration via an
// exponential moving average, for the orchestrator's progress logging.
type Meter struct {
	cfg Config

	jumpsCounter   metric.Int64Counter
	roundDuration  metric.Float64Histogram
	computeSeconds metric.Float64Counter

	roundEMA *stats.EMA
}

// NewMeter creates a Meter backed by mt's instruments. alpha controls
// the round-duration EMA's smoothing factor (0,1].
func NewMeter(mt metric.Meter, cfg Config, alpha float64) (*Meter, error) {
	jumps, err := mt.Int64Counter(metricCrossDPUJumps,
		metric.WithDescription("Cumulative cross-DPU walker jumps"),
		metric.WithUnit("{jump}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCrossDPUJumps, err)
	}

	duration, err := mt.Float64Histogram(metricRoundDuration,
		metric.WithDescription("Round wall-clock duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRoundDuration, err)
	}

	compute, err := mt.Float64Counter(metricComputeSeconds,
		metric.WithDescription("Cumulative estimated compute time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricComputeSeconds, err)
	}

	return &Meter{
		cfg:            cfg,
		jumpsCounter:   jumps,
		roundDuration:  duration,
		computeSeconds: compute,
		roundEMA:       stats.NewEMA(alpha),
	}, nil
}

// RecordRound records one completed round: its index, observed
// duration, and estimated compute time for its busiest DPU.
func (m *Meter) RecordRound(ctx context.Context, round int, jumps int, duration time.Duration, computeTime time.Duration) {
	attrs := metric.WithAttributes(attribute.Int("round.index", round))

	m.jumpsCounter.Add(ctx, int64(jumps), attrs)
	m.roundDuration.Record(ctx, duration.Seconds(), attrs)
	m.computeSeconds.Add(ctx, computeTime.Seconds(), attrs)
	m.roundEMA.Update(duration.Seconds())
}

// SmoothedRoundSeconds returns the EMA-smoothed round duration
// estimate, or 0 if no round has been recorded yet.
func (m *Meter) SmoothedRoundSeconds() float64 {
	if !m.roundEMA.Initialized() {
		return 0
	}

	return m.roundEMA.Value()
}
