// Package memstore implements store.Store in memory.
//
// Every object occupies a row. Live rows are tracked in a Roaring bitmap;
// Retrieve clones that bitmap so a query walks a fixed candidate set while
// mutations continue. Rows freed by Remove are reused lowest-first.
//
// The Store is safe for concurrent use. Queries do not hold the lock while
// the caller consumes results: each candidate row is re-checked under a
// read lock as it is reached, so a result set observes mutations made after
// Retrieve but never yields a row that is no longer live.
package memstore

import (
	"iter"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/txcoll/store"
)

var _ store.Store[int] = (*Store[int])(nil)

// Store is an in-memory, row-addressed object set.
type Store[O comparable] struct {
	mu    sync.RWMutex
	rows  map[O]uint32
	slots []O
	live  *roaring.Bitmap
	free  *roaring.Bitmap
}

// New creates an empty Store.
func New[O comparable]() *Store[O] {
	return &Store[O]{
		rows: make(map[O]uint32),
		live: roaring.New(),
		free: roaring.New(),
	}
}

// NewFrom creates a Store holding items.
func NewFrom[O comparable](items ...O) *Store[O] {
	s := New[O]()
	s.mu.Lock()
	for _, o := range items {
		s.insertLocked(o)
	}
	s.mu.Unlock()
	return s
}

func (s *Store[O]) insertLocked(o O) bool {
	if _, ok := s.rows[o]; ok {
		return false
	}
	var row uint32
	if !s.free.IsEmpty() {
		row = s.free.Minimum()
		s.free.Remove(row)
		s.slots[row] = o
	} else {
		row = uint32(len(s.slots))
		s.slots = append(s.slots, o)
	}
	s.rows[o] = row
	s.live.Add(row)
	return true
}

func (s *Store[O]) deleteLocked(o O) bool {
	row, ok := s.rows[o]
	if !ok {
		return false
	}
	delete(s.rows, o)
	var zero O
	s.slots[row] = zero
	s.live.Remove(row)
	s.free.Add(row)
	return true
}

// Add inserts o. It reports false if o was already present.
func (s *Store[O]) Add(o O) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(o), nil
}

// Remove deletes o. It reports false if o was absent.
func (s *Store[O]) Remove(o O) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(o), nil
}

// AddAll inserts items under a single lock acquisition.
func (s *Store[O]) AddAll(items []O) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, o := range items {
		if s.insertLocked(o) {
			changed = true
		}
	}
	return changed, nil
}

// RemoveAll deletes items under a single lock acquisition.
func (s *Store[O]) RemoveAll(items []O) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, o := range items {
		if s.deleteLocked(o) {
			changed = true
		}
	}
	return changed, nil
}

// Contains reports whether o is present.
func (s *Store[O]) Contains(o O) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[o]
	return ok
}

// Len returns the number of live objects.
func (s *Store[O]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.live.GetCardinality())
}

// Retrieve returns the objects matching q. Candidates are the rows live at
// the time of the call.
func (s *Store[O]) Retrieve(q store.Query[O]) (store.ResultSet[O], error) {
	s.mu.RLock()
	candidates := s.live.Clone()
	s.mu.RUnlock()

	return &resultSet[O]{s: s, q: q, candidates: candidates}, nil
}

// lookup returns the object at row if the row is still live.
func (s *Store[O]) lookup(row uint32) (O, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.live.Contains(row) {
		var zero O
		return zero, false
	}
	return s.slots[row], true
}

type resultSet[O comparable] struct {
	s          *Store[O]
	q          store.Query[O]
	candidates *roaring.Bitmap
	consumed   atomic.Bool
	closed     atomic.Bool
}

func (r *resultSet[O]) All() iter.Seq[O] {
	return func(yield func(O) bool) {
		if r.closed.Load() || !r.consumed.CompareAndSwap(false, true) {
			return
		}
		it := r.candidates.Iterator()
		for it.HasNext() {
			if r.closed.Load() {
				return
			}
			o, ok := r.s.lookup(it.Next())
			if !ok || !r.q.Match(o) {
				continue
			}
			if !yield(o) {
				return
			}
		}
	}
}

func (r *resultSet[O]) Close() error {
	r.closed.Store(true)
	return nil
}
