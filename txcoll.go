package txcoll

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/hupe1980/txcoll/internal/mvcc"
	"github.com/hupe1980/txcoll/store"
)

// Collection adds READ_COMMITTED isolation to a store.Store.
//
// All methods are safe for concurrent use. Committed writers are serialized;
// readers never block.
type Collection[O comparable] struct {
	store   store.Store[O]
	coord   *mvcc.Coordinator[O]
	metrics MetricsCollector
	logger  *Logger
}

// Stats is a point-in-time view of the versioning state.
type Stats struct {
	// CurrentVersion is the id of the version new readers attach to.
	CurrentVersion uint64

	// RetainedVersions counts registered versions, the current one included.
	RetainedVersions int

	// Readers counts committed result sets that are open.
	Readers int64
}

// New creates a Collection over s.
func New[O comparable](s store.Store[O], optFns ...Option) (*Collection[O], error) {
	if s == nil {
		return nil, ErrNilStore
	}

	opts := applyOptions(optFns)

	coord := mvcc.NewCoordinator(s, mvcc.Config{
		Logger:             opts.logger.Logger,
		Observer:           versionObserver{mc: opts.metricsCollector},
		DrainWarnThreshold: opts.drainWarnThreshold,
	})

	return &Collection[O]{
		store:   s,
		coord:   coord,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
	}, nil
}

// Update removes removals and adds additions in one mutation, and reports
// whether the store changed.
//
// With ReadCommitted (the default) readers that started before Update see
// neither the additions nor the absence of the removals; readers that start
// after Update returns see both. Update waits for readers of superseded
// versions to close their result sets. ctx only bounds the wait for other
// committed writers.
//
// Both batches empty is a no-op that returns false.
func (c *Collection[O]) Update(ctx context.Context, removals, additions store.Batch[O], optFns ...CallOption) (bool, error) {
	opts := applyCallOptions(optFns)
	start := time.Now()

	var (
		changed bool
		err     error
	)
	if opts.isolation == ReadUncommitted {
		changed, err = c.coord.UpdateUncommitted(removals, additions)
	} else {
		changed, err = c.coord.Update(ctx, removals, additions)
	}
	err = translateError(err)

	c.metrics.RecordUpdate(opts.isolation, removals.Len(), additions.Len(), changed, time.Since(start), err)
	c.logger.LogUpdate(ctx, opts.isolation, removals.Len(), additions.Len(), changed, err)
	return changed, err
}

// Add adds o.
func (c *Collection[O]) Add(ctx context.Context, o O, optFns ...CallOption) (bool, error) {
	return c.Update(ctx, store.Batch[O]{}, store.Set(o), optFns...)
}

// Remove removes o.
func (c *Collection[O]) Remove(ctx context.Context, o O, optFns ...CallOption) (bool, error) {
	return c.Update(ctx, store.Set(o), store.Batch[O]{}, optFns...)
}

// AddAll adds every item of b.
func (c *Collection[O]) AddAll(ctx context.Context, b store.Batch[O], optFns ...CallOption) (bool, error) {
	return c.Update(ctx, store.Batch[O]{}, b, optFns...)
}

// RemoveAll removes every item of b.
func (c *Collection[O]) RemoveAll(ctx context.Context, b store.Batch[O], optFns ...CallOption) (bool, error) {
	return c.Update(ctx, b, store.Batch[O]{}, optFns...)
}

// RetainAll removes every object not in keep.
//
// With ReadCommitted the snapshot, the complement and the removal run inside
// one exclusive section, so no other committed writer interleaves. Writers
// using ReadUncommitted can still interleave.
func (c *Collection[O]) RetainAll(ctx context.Context, keep store.Batch[O], optFns ...CallOption) (bool, error) {
	opts := applyCallOptions(optFns)

	var (
		changed bool
		err     error
	)
	if opts.isolation == ReadUncommitted {
		changed, err = c.retainUncommitted(keep.Index())
	} else {
		changed, err = c.coord.RetainAll(ctx, keep.Index())
	}
	err = translateError(err)

	c.logger.LogRetainAll(ctx, keep.Len(), changed, err)
	return changed, err
}

func (c *Collection[O]) retainUncommitted(keep map[O]struct{}) (bool, error) {
	rs, err := c.coord.RetrieveUncommitted(store.All[O]())
	if err != nil {
		return false, err
	}
	var doomed []O
	for o := range rs.All() {
		if _, ok := keep[o]; !ok {
			doomed = append(doomed, o)
		}
	}
	if err := rs.Close(); err != nil {
		return false, err
	}
	return c.coord.UpdateUncommitted(store.Set(doomed...), store.Batch[O]{})
}

// Clear removes every object.
func (c *Collection[O]) Clear(ctx context.Context, optFns ...CallOption) (bool, error) {
	return c.RetainAll(ctx, store.Set[O](), optFns...)
}

// Retrieve returns the objects matching q.
//
// The result set must be closed on every path, including failures: an open
// committed result set prevents its version from being retired and blocks
// the next committed writer. Prefer View where the scope allows it.
func (c *Collection[O]) Retrieve(q store.Query[O], optFns ...CallOption) (store.ResultSet[O], error) {
	opts := applyCallOptions(optFns)
	start := time.Now()

	var (
		rs  store.ResultSet[O]
		err error
	)
	if opts.isolation == ReadUncommitted {
		rs, err = c.coord.RetrieveUncommitted(q)
	} else {
		rs, err = c.coord.Retrieve(q)
	}

	c.metrics.RecordRetrieve(opts.isolation, time.Since(start), err)
	c.logger.LogRetrieve(context.Background(), opts.isolation, err)
	return rs, err
}

// View runs fn over the objects matching q and closes the result set when fn
// returns or panics.
func (c *Collection[O]) View(q store.Query[O], fn func(iter.Seq[O]) error, optFns ...CallOption) (err error) {
	rs, err := c.Retrieve(q, optFns...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rs.Close())
	}()
	return fn(rs.All())
}

// Len counts the objects.
func (c *Collection[O]) Len(optFns ...CallOption) (int, error) {
	n := 0
	err := c.View(store.All[O](), func(seq iter.Seq[O]) error {
		for range seq {
			n++
		}
		return nil
	}, optFns...)
	return n, err
}

// Contains reports whether o is present.
func (c *Collection[O]) Contains(o O, optFns ...CallOption) (bool, error) {
	found := false
	err := c.View(func(x O) bool { return x == o }, func(seq iter.Seq[O]) error {
		for range seq {
			found = true
			break
		}
		return nil
	}, optFns...)
	return found, err
}

// Stats returns the current versioning state.
func (c *Collection[O]) Stats() Stats {
	r := c.coord.Registry()
	return Stats{
		CurrentVersion:   r.CurrentID(),
		RetainedVersions: r.Len(),
		Readers:          r.Readers(),
	}
}
