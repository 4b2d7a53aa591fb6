// Package resultset provides generic adapters around store.ResultSet.
package resultset

import (
	"iter"
	"slices"
	"sync/atomic"

	"github.com/hupe1980/txcoll/store"
)

// filtered hides the elements of an underlying result set rejected by keep.
type filtered[O any] struct {
	inner   store.ResultSet[O]
	keep    func(O) bool
	onClose func()
	closed  atomic.Bool
}

// Filter wraps rs so that only elements accepted by keep are yielded.
// keep is evaluated lazily as the sequence is consumed.
//
// Close closes rs and then runs onClose. Both happen at most once no matter
// how often Close is called. A nil keep accepts everything; a nil onClose is
// ignored.
func Filter[O any](rs store.ResultSet[O], keep func(O) bool, onClose func()) store.ResultSet[O] {
	return &filtered[O]{inner: rs, keep: keep, onClose: onClose}
}

func (f *filtered[O]) All() iter.Seq[O] {
	return func(yield func(O) bool) {
		if f.closed.Load() {
			return
		}
		for o := range f.inner.All() {
			if f.keep != nil && !f.keep(o) {
				continue
			}
			if !yield(o) {
				return
			}
		}
	}
}

func (f *filtered[O]) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := f.inner.Close()
	if f.onClose != nil {
		f.onClose()
	}
	return err
}

// sliceSet is a ResultSet over an in-memory slice.
type sliceSet[O any] struct {
	items  []O
	next   atomic.Int64
	closed atomic.Bool
}

// FromSlice returns a ResultSet yielding items once, in order.
func FromSlice[O any](items []O) store.ResultSet[O] {
	return &sliceSet[O]{items: items}
}

func (s *sliceSet[O]) All() iter.Seq[O] {
	return func(yield func(O) bool) {
		for !s.closed.Load() {
			i := s.next.Add(1) - 1
			if i >= int64(len(s.items)) {
				return
			}
			if !yield(s.items[i]) {
				return
			}
		}
	}
}

func (s *sliceSet[O]) Close() error {
	s.closed.Store(true)
	return nil
}

// Collect drains rs into a slice and closes it.
func Collect[O any](rs store.ResultSet[O]) ([]O, error) {
	out := slices.Collect(rs.All())
	return out, rs.Close()
}
