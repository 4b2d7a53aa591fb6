package txcoll

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    updates    *prometheus.CounterVec
//	    drainWait  prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordVersionRetired(id uint64, waited time.Duration) {
//	    p.drainWait.Observe(waited.Seconds())
//	}
type MetricsCollector interface {
	// RecordUpdate is called after each mutation.
	// removed and added are the batch sizes, changed reports whether the
	// store changed, err is nil if successful.
	RecordUpdate(level IsolationLevel, removed, added int, changed bool, duration time.Duration, err error)

	// RecordRetrieve is called after a result set was opened (or failed to open).
	RecordRetrieve(level IsolationLevel, duration time.Duration, err error)

	// RecordVersionCreated is called when a committed mutation publishes a version.
	RecordVersionCreated(id uint64, excluded int)

	// RecordVersionRetired is called when a superseded version is dropped.
	// waited is the time the writer blocked on the version's readers.
	RecordVersionRetired(id uint64, waited time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordUpdate(IsolationLevel, int, int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordRetrieve(IsolationLevel, time.Duration, error)               {}
func (NoopMetricsCollector) RecordVersionCreated(uint64, int)                                  {}
func (NoopMetricsCollector) RecordVersionRetired(uint64, time.Duration)                        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	UpdateCount         atomic.Int64
	UpdateErrors        atomic.Int64
	UpdateNoops         atomic.Int64
	UpdateTotalNanos    atomic.Int64
	UncommittedUpdates  atomic.Int64
	RetrieveCount       atomic.Int64
	RetrieveErrors      atomic.Int64
	UncommittedRetrieve atomic.Int64
	VersionsCreated     atomic.Int64
	VersionsRetired     atomic.Int64
	DrainWaits          atomic.Int64
	DrainWaitNanos      atomic.Int64
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(level IsolationLevel, removed, added int, changed bool, duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	b.UpdateTotalNanos.Add(duration.Nanoseconds())
	if level == ReadUncommitted {
		b.UncommittedUpdates.Add(1)
	}
	if err != nil {
		b.UpdateErrors.Add(1)
	} else if !changed {
		b.UpdateNoops.Add(1)
	}
}

// RecordRetrieve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetrieve(level IsolationLevel, duration time.Duration, err error) {
	b.RetrieveCount.Add(1)
	if level == ReadUncommitted {
		b.UncommittedRetrieve.Add(1)
	}
	if err != nil {
		b.RetrieveErrors.Add(1)
	}
}

// RecordVersionCreated implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVersionCreated(id uint64, excluded int) {
	b.VersionsCreated.Add(1)
}

// RecordVersionRetired implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVersionRetired(id uint64, waited time.Duration) {
	b.VersionsRetired.Add(1)
	if waited > 0 {
		b.DrainWaits.Add(1)
		b.DrainWaitNanos.Add(waited.Nanoseconds())
	}
}

// versionObserver forwards registry events to a MetricsCollector.
type versionObserver struct {
	mc MetricsCollector
}

func (o versionObserver) OnVersionCreated(id uint64, excluded int) {
	o.mc.RecordVersionCreated(id, excluded)
}

func (o versionObserver) OnVersionRetired(id uint64, waited time.Duration) {
	o.mc.RecordVersionRetired(id, waited)
}
