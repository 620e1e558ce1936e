// Package metrics records turn and tool-call metrics for the legal agent.
package metrics

import (
	"context"
	"time"
)

// MetricsService defines the turn metrics interface.
// Consumers: the turn runner and the agent tool loop.
type MetricsService interface {
	// RecordTurn records a finished turn by its terminal state.
	RecordTurn(ctx context.Context, state string, latency time.Duration, events int)

	// RecordToolCall records tool call metrics.
	RecordToolCall(ctx context.Context, toolName string, latency time.Duration, success bool)

	// GetStats retrieves statistics aggregated since the given time.
	GetStats(ctx context.Context, since time.Time) *Stats
}

// Stats represents aggregated turn metrics.
type Stats struct {
	TurnCount  int64                `json:"turn_count"`
	LatencyP50 time.Duration        `json:"latency_p50"`
	LatencyP95 time.Duration        `json:"latency_p95"`
	States     map[string]*TurnStat `json:"states"`
	Tools      map[string]*ToolStat `json:"tools"`
}

// TurnStat represents statistics for turns ending in one state.
type TurnStat struct {
	Count      int64         `json:"count"`
	AvgEvents  float64       `json:"avg_events"`
	AvgLatency time.Duration `json:"avg_latency"`
}

// ToolStat represents statistics for a single tool.
type ToolStat struct {
	Count       int64         `json:"count"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) RecordTurn(context.Context, string, time.Duration, int) {}
func (Nop) RecordToolCall(context.Context, string, time.Duration, bool) {}
func (Nop) GetStats(context.Context, time.Time) *Stats { return newStats() }

func newStats() *Stats {
	return &Stats{
		States: make(map[string]*TurnStat),
		Tools:  make(map[string]*ToolStat),
	}
}
