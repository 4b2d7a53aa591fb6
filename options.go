package txcoll

import (
	"log/slog"
	"time"

	"github.com/hupe1980/txcoll/internal/mvcc"
)

type options struct {
	metricsCollector   MetricsCollector
	logger             *Logger
	drainWarnThreshold time.Duration
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector:   NoopMetricsCollector{},
		logger:             NoopLogger(),
		drainWarnThreshold: mvcc.DefaultDrainWarnThreshold,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

// Option configures a Collection.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &txcoll.BasicMetricsCollector{}
//	coll, _ := txcoll.New[string](memstore.New[string](), txcoll.WithMetricsCollector(metrics))
//	// ... use coll ...
//	fmt.Printf("versions retired: %d\n", metrics.VersionsRetired.Load())
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := txcoll.NewJSONLogger(slog.LevelInfo)
//	coll, _ := txcoll.New[string](memstore.New[string](), txcoll.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithDrainWarnThreshold sets how long a committed writer may wait on unclosed
// result sets before a warning is logged. Warnings repeat at most once per
// threshold. Zero disables them. Defaults to 5s.
//
// The writer keeps waiting either way: closing result sets is the caller's
// responsibility.
func WithDrainWarnThreshold(d time.Duration) Option {
	return func(o *options) {
		o.drainWarnThreshold = d
	}
}

// IsolationLevel selects how a single call interacts with versioning.
type IsolationLevel int

const (
	// ReadCommitted runs the full versioning protocol. Readers never observe
	// a mutation that has not completed. This is the default.
	ReadCommitted IsolationLevel = iota

	// ReadUncommitted bypasses versioning. Reads may observe mutations in
	// progress; writes go straight to the store without the exclusive section.
	ReadUncommitted
)

func (l IsolationLevel) String() string {
	switch l {
	case ReadCommitted:
		return "READ_COMMITTED"
	case ReadUncommitted:
		return "READ_UNCOMMITTED"
	default:
		return "UNKNOWN"
	}
}

type callOptions struct {
	isolation IsolationLevel
}

func applyCallOptions(optFns []CallOption) callOptions {
	o := callOptions{isolation: ReadCommitted}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// CallOption configures a single read or write call.
type CallOption func(*callOptions)

// WithIsolation sets the isolation level of a call.
func WithIsolation(level IsolationLevel) CallOption {
	return func(o *callOptions) {
		o.isolation = level
	}
}
