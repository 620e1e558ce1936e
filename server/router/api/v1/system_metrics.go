package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// MetricsOverviewResponse represents the overview response of turn metrics.
type MetricsOverviewResponse struct {
	TotalTurns   int64                 `json:"total_turns"`
	CompletedPct float64               `json:"completed_pct"`
	ForcedStops  int64                 `json:"forced_stops"`
	Failures     int64                 `json:"failures"`
	P50LatencyMs int64                 `json:"p50_latency_ms"`
	P95LatencyMs int64                 `json:"p95_latency_ms"`
	Tools        []ToolMetricsOverview `json:"tools"`
	TimeRange    string                `json:"time_range"`
}

// ToolMetricsOverview summarizes one tool.
type ToolMetricsOverview struct {
	Name         string  `json:"name"`
	Calls        int64   `json:"calls"`
	SuccessRate  float32 `json:"success_rate"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
}

// GetMetricsOverview returns the turn metrics overview
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	// Parse time range parameter
	timeRange := c.QueryParam("range")
	if timeRange == "" {
		timeRange = "24h"
	}
	since, err := parseTimeRange(timeRange)
	if err != nil {
		slog.Warn("Invalid time range parameter in metrics request", "range", timeRange, "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "invalid time range"})
	}

	stats := s.Metrics.GetStats(c.Request().Context(), since)
	resp := MetricsOverviewResponse{
		TotalTurns:   stats.TurnCount,
		P50LatencyMs: stats.LatencyP50.Milliseconds(),
		P95LatencyMs: stats.LatencyP95.Milliseconds(),
		Tools:        []ToolMetricsOverview{},
		TimeRange:    timeRange,
	}
	if st, ok := stats.States["COMPLETED"]; ok && stats.TurnCount > 0 {
		resp.CompletedPct = float64(st.Count) * 100 / float64(stats.TurnCount)
	}
	if st, ok := stats.States["FORCED_STOP"]; ok {
		resp.ForcedStops = st.Count
	}
	if st, ok := stats.States["FAILED"]; ok {
		resp.Failures = st.Count
	}
	for name, ts := range stats.Tools {
		resp.Tools = append(resp.Tools, ToolMetricsOverview{
			Name:         name,
			Calls:        ts.Count,
			SuccessRate:  ts.SuccessRate,
			AvgLatencyMs: ts.AvgLatency.Milliseconds(),
		})
	}
	sort.Slice(resp.Tools, func(i, j int) bool { return resp.Tools[i].Name < resp.Tools[j].Name })

	return c.JSON(http.StatusOK, resp)
}

// parseTimeRange parses time range string and returns the start time
func parseTimeRange(timeRange string) (time.Time, error) {
	now := time.Now()
	switch timeRange {
	case "1h":
		return now.Add(-1 * time.Hour), nil
	case "24h":
		return now.Add(-24 * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("invalid time range: %s (valid: 1h, 24h)", timeRange)
	}
}
