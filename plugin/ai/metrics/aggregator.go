package metrics

import (
	"sort"
	"sync"
	"time"
)

// Aggregator aggregates metrics in memory in hourly buckets.
type Aggregator struct {
	mu sync.RWMutex

	// Turn metrics: key = "hourBucket|state"
	turnMetrics map[string]*turnBucket

	// Tool metrics: key = "hourBucket|toolName"
	toolMetrics map[string]*toolBucket

	now func() time.Time
}

type turnBucket struct {
	hourBucket time.Time
	state      string
	count      int64
	eventSum   int64
	latencies  []int64 // in milliseconds
}

type toolBucket struct {
	hourBucket   time.Time
	toolName     string
	callCount    int64
	successCount int64
	latencySum   int64 // in milliseconds
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		turnMetrics: make(map[string]*turnBucket),
		toolMetrics: make(map[string]*toolBucket),
		now:         time.Now,
	}
}

// RecordTurn records a single finished turn.
func (a *Aggregator) RecordTurn(state string, latency time.Duration, events int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, state)

	bucket, exists := a.turnMetrics[key]
	if !exists {
		bucket = &turnBucket{
			hourBucket: hourBucket,
			state:      state,
			latencies:  make([]int64, 0, 100),
		}
		a.turnMetrics[key] = bucket
	}

	bucket.count++
	bucket.eventSum += int64(events)
	bucket.latencies = append(bucket.latencies, latency.Milliseconds())
}

// RecordToolCall records a single tool call.
func (a *Aggregator) RecordToolCall(toolName string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, toolName)

	bucket, exists := a.toolMetrics[key]
	if !exists {
		bucket = &toolBucket{
			hourBucket: hourBucket,
			toolName:   toolName,
		}
		a.toolMetrics[key] = bucket
	}

	bucket.callCount++
	if success {
		bucket.successCount++
	}
	bucket.latencySum += latency.Milliseconds()
}

// Prune drops buckets for hours before the given time.
func (a *Aggregator) Prune(before time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := truncateToHour(before)
	removed := 0
	for key, bucket := range a.turnMetrics {
		if bucket.hourBucket.Before(cutoff) {
			delete(a.turnMetrics, key)
			removed++
		}
	}
	for key, bucket := range a.toolMetrics {
		if bucket.hourBucket.Before(cutoff) {
			delete(a.toolMetrics, key)
			removed++
		}
	}
	return removed
}

// Stats returns stats aggregated over buckets from the hour of since onward.
func (a *Aggregator) Stats(since time.Time) *Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	cutoff := truncateToHour(since)
	stats := newStats()

	type turnAgg struct {
		count, events, latencySum int64
	}
	turnAggs := make(map[string]*turnAgg)
	allLatencies := make([]int64, 0)

	for _, bucket := range a.turnMetrics {
		if bucket.hourBucket.Before(cutoff) {
			continue
		}
		stats.TurnCount += bucket.count
		allLatencies = append(allLatencies, bucket.latencies...)

		agg, ok := turnAggs[bucket.state]
		if !ok {
			agg = &turnAgg{}
			turnAggs[bucket.state] = agg
		}
		agg.count += bucket.count
		agg.events += bucket.eventSum
		agg.latencySum += sumLatencies(bucket.latencies)
	}
	for state, agg := range turnAggs {
		stat := &TurnStat{Count: agg.count}
		if agg.count > 0 {
			stat.AvgEvents = float64(agg.events) / float64(agg.count)
			stat.AvgLatency = time.Duration(agg.latencySum/agg.count) * time.Millisecond
		}
		stats.States[state] = stat
	}

	type toolAgg struct {
		calls, successes, latencySum int64
	}
	toolAggs := make(map[string]*toolAgg)
	for _, bucket := range a.toolMetrics {
		if bucket.hourBucket.Before(cutoff) {
			continue
		}
		agg, ok := toolAggs[bucket.toolName]
		if !ok {
			agg = &toolAgg{}
			toolAggs[bucket.toolName] = agg
		}
		agg.calls += bucket.callCount
		agg.successes += bucket.successCount
		agg.latencySum += bucket.latencySum
	}
	for name, agg := range toolAggs {
		stat := &ToolStat{Count: agg.calls}
		if agg.calls > 0 {
			stat.SuccessRate = float32(agg.successes) / float32(agg.calls)
			stat.AvgLatency = time.Duration(agg.latencySum/agg.calls) * time.Millisecond
		}
		stats.Tools[name] = stat
	}

	stats.LatencyP50 = time.Duration(percentile(allLatencies, 50)) * time.Millisecond
	stats.LatencyP95 = time.Duration(percentile(allLatencies, 95)) * time.Millisecond

	return stats
}

// Helper functions

func truncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func makeKey(hourBucket time.Time, name string) string {
	return hourBucket.Format(time.RFC3339) + "|" + name
}

func sumLatencies(latencies []int64) int64 {
	var sum int64
	for _, l := range latencies {
		sum += l
	}
	return sum
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
