package mvcc

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Registry owns the ordered set of live versions and the current version
// pointer.
//
// Acquire and Release are safe for any number of concurrent readers. Create
// and RetireDrained must only be called by the holder of the exclusive
// section.
type Registry[O comparable] struct {
	nextID  atomic.Uint64
	current atomic.Pointer[Version[O]]

	mu       sync.Mutex // guards versions
	versions []*Version[O]

	logger    *slog.Logger
	observer  Observer
	warnAfter time.Duration
	warn      rate.Sometimes
}

// NewRegistry creates a registry holding an initial version with an empty
// exclusion set.
func NewRegistry[O comparable](cfg Config) *Registry[O] {
	cfg = cfg.withDefaults()
	r := &Registry[O]{
		logger:    cfg.Logger,
		observer:  cfg.Observer,
		warnAfter: cfg.DrainWarnThreshold,
		warn:      rate.Sometimes{Interval: cfg.DrainWarnThreshold},
	}
	r.Create(nil)
	return r
}

// Create publishes a new version hiding exclude.
//
// The version is registered before it becomes current, so every version a
// reader can reach through the pointer is also in the registry.
func (r *Registry[O]) Create(exclude map[O]struct{}) *Version[O] {
	v := newVersion(r.nextID.Add(1), exclude)

	r.mu.Lock()
	r.versions = append(r.versions, v)
	r.mu.Unlock()

	r.current.Store(v)

	r.logger.Debug("version published", "version", v.id, "excluded", len(exclude))
	r.observer.OnVersionCreated(v.id, len(exclude))
	return v
}

// Current returns the current version.
func (r *Registry[O]) Current() *Version[O] {
	return r.current.Load()
}

// CurrentID returns the id of the current version.
func (r *Registry[O]) CurrentID() uint64 {
	return r.current.Load().id
}

// Lookup returns the registered version with the given id. A miss panics
// with ErrVersionMissing.
func (r *Registry[O]) Lookup(id uint64) *Version[O] {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := slices.BinarySearchFunc(r.versions, id, func(v *Version[O], id uint64) int {
		return cmp.Compare(v.id, id)
	})
	if !ok {
		panic(fmt.Errorf("%w: id %d", ErrVersionMissing, id))
	}
	return r.versions[i]
}

// Acquire attaches a reader to the current version and returns it. The
// caller must pass the result to Release exactly once.
func (r *Registry[O]) Acquire() *Version[O] {
	for {
		v := r.current.Load()
		v.readers.Add(1)
		if r.current.Load() == v {
			return v
		}
		// Superseded before the increment was guaranteed visible to the
		// writer. Nothing was read through v; back out and retry.
		r.Release(v)
	}
}

// Release detaches a reader from v. The reader that leaves a superseded
// version empty releases its completion signal.
func (r *Registry[O]) Release(v *Version[O]) {
	n := v.readers.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("mvcc: reader count of version %d dropped below zero", v.id))
	}
	if n == 0 && r.current.Load() != v {
		v.signal()
	}
}

// RetireDrained drops every version older than the current one, oldest
// first, waiting for each to lose its last reader.
func (r *Registry[O]) RetireDrained() {
	cur := r.Lookup(r.CurrentID())

	for {
		r.mu.Lock()
		if len(r.versions) == 0 || r.versions[0].id >= cur.id {
			r.mu.Unlock()
			return
		}
		v := r.versions[0]
		r.mu.Unlock()

		waited := r.await(v)

		r.mu.Lock()
		r.versions = slices.Delete(r.versions, 0, 1)
		r.mu.Unlock()

		r.logger.Debug("version retired", "version", v.id, "waited", waited)
		r.observer.OnVersionRetired(v.id, waited)
	}
}

// await blocks until v has no readers left.
func (r *Registry[O]) await(v *Version[O]) time.Duration {
	if v.readers.Load() == 0 {
		return 0
	}

	start := time.Now()
	if r.warnAfter <= 0 {
		<-v.done
		return time.Since(start)
	}

	t := time.NewTimer(r.warnAfter)
	defer t.Stop()

	for {
		select {
		case <-v.done:
			return time.Since(start)
		case <-t.C:
			r.warn.Do(func() {
				r.logger.Warn("writer blocked on unclosed result sets",
					"version", v.id,
					"readers", v.readers.Load(),
					"waited", time.Since(start),
				)
			})
			t.Reset(r.warnAfter)
		}
	}
}

// Len returns the number of registered versions.
func (r *Registry[O]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.versions)
}

// Readers returns the number of readers attached to registered versions.
func (r *Registry[O]) Readers() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, v := range r.versions {
		n += v.readers.Load()
	}
	return n
}
