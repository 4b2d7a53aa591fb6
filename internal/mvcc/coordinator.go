package mvcc

import (
	"context"
	"log/slog"

	"github.com/hupe1980/txcoll/resultset"
	"github.com/hupe1980/txcoll/store"
	"golang.org/x/sync/semaphore"
)

// Coordinator runs the committed read and write protocol over a store.
type Coordinator[O comparable] struct {
	store    store.Store[O]
	registry *Registry[O]

	// section is the exclusive section: one committed writer at a time.
	section *semaphore.Weighted

	logger *slog.Logger
}

// NewCoordinator creates a Coordinator over s.
func NewCoordinator[O comparable](s store.Store[O], cfg Config) *Coordinator[O] {
	cfg = cfg.withDefaults()
	return &Coordinator[O]{
		store:    s,
		registry: NewRegistry[O](cfg),
		section:  semaphore.NewWeighted(1),
		logger:   cfg.Logger,
	}
}

// Registry returns the version registry.
func (c *Coordinator[O]) Registry() *Registry[O] { return c.registry }

// Update applies removals and additions with READ_COMMITTED visibility.
//
// It blocks until the exclusive section is free; if ctx ends first it
// returns ctx.Err() without side effects. Once inside, the mutation runs to
// completion regardless of ctx.
func (c *Coordinator[O]) Update(ctx context.Context, removals, additions store.Batch[O]) (bool, error) {
	if err := c.section.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer c.section.Release(1)

	return c.updateLocked(removals, additions)
}

// UpdateUncommitted applies removals, then additions, directly to the store.
func (c *Coordinator[O]) UpdateUncommitted(removals, additions store.Batch[O]) (bool, error) {
	removed, err := applyRemoves(c.store, removals)
	if err != nil {
		return removed, &PhaseError{Phase: PhaseRemove, Err: err}
	}
	added, err := applyAdds(c.store, additions)
	if err != nil {
		return removed || added, &PhaseError{Phase: PhaseAdd, Err: err}
	}
	return removed || added, nil
}

func (c *Coordinator[O]) updateLocked(removals, additions store.Batch[O]) (bool, error) {
	if removals.IsEmpty() && additions.IsEmpty() {
		return false, nil
	}

	var (
		changed bool
		err     error
	)

	if !additions.IsEmpty() {
		// New readers must not see the additions until the clear phase.
		c.advance(additions.Index())
		changed, err = applyAdds(c.store, additions)
		if err != nil {
			err = &PhaseError{Phase: PhaseAdd, Err: err}
		}
	}

	if err == nil && !removals.IsEmpty() {
		// New readers treat the removals as gone before they are.
		c.advance(removals.Index())
		var removed bool
		removed, err = applyRemoves(c.store, removals)
		if err != nil {
			err = &PhaseError{Phase: PhaseRemove, Err: err}
		}
		changed = changed || removed
	}

	c.advance(nil)

	if err != nil {
		c.logger.Error("mutation failed", "version", c.registry.CurrentID(), "error", err)
	}
	return changed, err
}

// advance publishes a version hiding exclude and drains everything older.
func (c *Coordinator[O]) advance(exclude map[O]struct{}) {
	c.registry.Create(exclude)
	c.registry.RetireDrained()
}

// Retrieve returns the matches of q as seen by the current version. The
// result set must be closed.
func (c *Coordinator[O]) Retrieve(q store.Query[O]) (store.ResultSet[O], error) {
	v := c.registry.Acquire()

	rs, err := c.store.Retrieve(q)
	if err != nil {
		c.registry.Release(v)
		return nil, err
	}

	return resultset.Filter(rs, v.Visible, func() {
		c.registry.Release(v)
	}), nil
}

// RetrieveUncommitted returns the store's matches unfiltered.
func (c *Coordinator[O]) RetrieveUncommitted(q store.Query[O]) (store.ResultSet[O], error) {
	return c.store.Retrieve(q)
}

// RetainAll removes every object not in keep. The exclusive section is held
// from the snapshot through the removal, so no committed writer can slip in
// between.
func (c *Coordinator[O]) RetainAll(ctx context.Context, keep map[O]struct{}) (bool, error) {
	if err := c.section.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer c.section.Release(1)

	rs, err := c.Retrieve(store.All[O]())
	if err != nil {
		return false, err
	}

	var doomed []O
	for o := range rs.All() {
		if _, ok := keep[o]; !ok {
			doomed = append(doomed, o)
		}
	}
	// The snapshot reader must be gone before the removal drains its version.
	if err := rs.Close(); err != nil {
		return false, err
	}

	if len(doomed) == 0 {
		return false, nil
	}
	return c.updateLocked(store.Set(doomed...), store.Batch[O]{})
}
