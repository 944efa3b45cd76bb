// Package metrics aggregates wall-clock timings for pipeline phases and
// exports them as a Prometheus histogram.
package metrics

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Phase names recorded by the pipeline, engine and sinks.
const (
	OpSampling      = "sampling"
	OpTraining      = "training"
	OpThreshold     = "threshold"
	OpMatching      = "matching"
	OpConsolidation = "consolidation"
	OpPublish       = "publish"
	OpReview        = "review"
)

// OperationMetrics holds aggregated timings for one operation.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
	LastTime  time.Duration
}

// OperationSnapshot is the reporting view of OperationMetrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
	LastTimeMs  int64   `json:"last_time_ms"`
}

// Snapshot is every recorded operation at a point in time.
type Snapshot struct {
	UptimeSeconds float64                      `json:"uptime_seconds"`
	Operations    map[string]OperationSnapshot `json:"operations"`
}

// Collector aggregates timings. All methods are safe for concurrent use.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics

	registry *prometheus.Registry
	duration *prometheus.HistogramVec
}

// NewCollector registers the phase histogram on reg. A nil reg gets a fresh
// registry. Collectors sharing a registry share the histogram.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		registry:  reg,
		duration:  registerDuration(reg),
	}
}

func registerDuration(reg *prometheus.Registry) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recordlink_phase_duration_seconds",
		Help:    "Duration of consolidation, matching and publishing phases by operation",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"op"}) // op: sampling, training, threshold, matching, consolidation, publish, review
	if err := reg.Register(hv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return hv
}

// Registry is what /metrics serves.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records one run of op.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	m.LastTime = duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
	c.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// Time starts a timer for op; call the returned func when the phase ends.
func (c *Collector) Time(op string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		c.RecordTiming(op, d)
		return d
	}
}

// Last returns the most recent duration recorded for op.
func (c *Collector) Last(op string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.ops[op]
	if !ok {
		return 0, false
	}
	return m.LastTime, true
}

func snapshotOp(m *OperationMetrics) OperationSnapshot {
	return OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
		LastTimeMs:  m.LastTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time copy of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ops := make(map[string]OperationSnapshot, len(c.ops))
	for name, m := range c.ops {
		if m.Count == 0 {
			continue
		}
		ops[name] = snapshotOp(m)
	}
	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Operations:    ops,
	}
}
