package store

import "iter"

// Query selects objects. It is evaluated lazily by the Store, once per
// candidate object.
type Query[O any] func(O) bool

// All returns a Query matching every object.
func All[O any]() Query[O] {
	return func(O) bool { return true }
}

// Match reports whether o satisfies q. A nil Query matches everything.
func (q Query[O]) Match(o O) bool {
	if q == nil {
		return true
	}
	return q(o)
}

// ResultSet is a lazy, single-pass sequence of query matches.
//
// Close must be called once the consumer is done, on every exit path.
// Implementations must make Close idempotent.
type ResultSet[O any] interface {
	// All returns the matches. The sequence is consumed as it is iterated
	// and cannot be restarted.
	All() iter.Seq[O]

	// Close releases resources held by the result set.
	Close() error
}

// Store is the backing collection consumed by txcoll.
//
// Every mutation reports whether the Store's contents changed. Batch
// mutations receive distinct items.
type Store[O comparable] interface {
	Add(o O) (bool, error)
	Remove(o O) (bool, error)
	AddAll(items []O) (bool, error)
	RemoveAll(items []O) (bool, error)
	Retrieve(q Query[O]) (ResultSet[O], error)
}
