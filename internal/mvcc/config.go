package mvcc

import (
	"log/slog"
	"time"
)

// DefaultDrainWarnThreshold is how long a writer waits on a superseded
// version before it starts logging warnings.
const DefaultDrainWarnThreshold = 5 * time.Second

// Observer receives version lifecycle events.
type Observer interface {
	// OnVersionCreated is called after a version is published.
	OnVersionCreated(id uint64, excluded int)

	// OnVersionRetired is called after a version is dropped from the registry.
	// waited is the time the writer blocked on its readers.
	OnVersionRetired(id uint64, waited time.Duration)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) OnVersionCreated(uint64, int)            {}
func (NoopObserver) OnVersionRetired(uint64, time.Duration) {}

// Config configures a Registry and its Coordinator.
type Config struct {
	// Logger receives protocol diagnostics. Nil discards them.
	Logger *slog.Logger

	// Observer receives version events. Nil disables them.
	Observer Observer

	// DrainWarnThreshold is the wait after which a blocked writer logs a
	// warning, and the minimum spacing between such warnings. Zero disables
	// the warnings.
	DrainWarnThreshold time.Duration
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Observer == nil {
		c.Observer = NoopObserver{}
	}
	if c.DrainWarnThreshold < 0 {
		c.DrainWarnThreshold = 0
	}
	return c
}
