package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// retention bounds how long hourly buckets are kept in memory.
const retention = 24 * time.Hour

// Service implements the MetricsService interface with Prometheus
// collectors and an in-memory aggregator for the stats endpoint.
type Service struct {
	aggregator *Aggregator
	collectors *Collectors
}

// NewService creates a new metrics service registering its collectors
// with reg (the default registerer when nil).
func NewService(reg prometheus.Registerer) (*Service, error) {
	collectors, err := NewCollectors(reg)
	if err != nil {
		return nil, err
	}
	return &Service{
		aggregator: NewAggregator(),
		collectors: collectors,
	}, nil
}

// RecordTurn records a finished turn.
func (s *Service) RecordTurn(_ context.Context, state string, latency time.Duration, events int) {
	s.collectors.turnsTotal.WithLabelValues(state).Inc()
	s.collectors.turnDuration.Observe(latency.Seconds())
	s.collectors.turnEvents.Observe(float64(events))

	s.aggregator.RecordTurn(state, latency, events)
	s.aggregator.Prune(s.aggregator.now().Add(-retention))
}

// RecordToolCall records a tool call metric.
func (s *Service) RecordToolCall(_ context.Context, toolName string, latency time.Duration, success bool) {
	s.collectors.toolCalls.WithLabelValues(toolName, outcome(success)).Inc()
	s.collectors.toolDurations.WithLabelValues(toolName).Observe(latency.Seconds())

	s.aggregator.RecordToolCall(toolName, latency, success)
}

// GetStats retrieves aggregated statistics since the given time.
func (s *Service) GetStats(_ context.Context, since time.Time) *Stats {
	return s.aggregator.Stats(since)
}
