package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lexagent"

// Collectors exposes Prometheus collectors for turn and tool activity.
type Collectors struct {
	turnsTotal    *prometheus.CounterVec
	turnDuration  prometheus.Histogram
	turnEvents    prometheus.Histogram
	toolCalls     *prometheus.CounterVec
	toolDurations *prometheus.HistogramVec
}

// NewCollectors creates the collectors and registers them with reg. A
// collector already registered under the same name is reused.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collectors{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns finished, by terminal state.",
		}, []string{"state"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a turn from load to persist.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		turnEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_events",
			Help:      "Events consumed per turn.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 30},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Tool execution latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}

	var err error
	if c.turnsTotal, err = register(reg, c.turnsTotal); err != nil {
		return nil, err
	}
	if c.turnDuration, err = register(reg, c.turnDuration); err != nil {
		return nil, err
	}
	if c.turnEvents, err = register(reg, c.turnEvents); err != nil {
		return nil, err
	}
	if c.toolCalls, err = register(reg, c.toolCalls); err != nil {
		return nil, err
	}
	if c.toolDurations, err = register(reg, c.toolDurations); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
