package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// newPrometheusReader creates a Prometheus-backed OTel metric reader and
// the /metrics scrape handler for it. Each call uses an independent
// registry, so a run's MeterProvider owns a collector no other run's
// handler can collide with.
func newPrometheusReader() (sdkmetric.Reader, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// MetricsServer serves a Providers' /metrics scrape endpoint over HTTP
// for the lifetime of a run. Starting one is optional — a run with no
// configured address just keeps pushing instruments to the Prometheus
// registry unscraped, which is harmless for a short batch job.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
}

// NewMetricsServer binds addr and starts serving handler at /metrics in
// the background.
func NewMetricsServer(addr string, handler http.Handler) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux}

	go func() {
		_ = srv.Serve(listener)
	}()

	return &MetricsServer{server: srv, listener: listener}, nil
}

// Addr returns the address the server is listening on.
func (s *MetricsServer) Addr() string {
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server.
func (s *MetricsServer) Close(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	return nil
}
