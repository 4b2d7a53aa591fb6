package mvcc

import (
	"sync"
	"sync/atomic"
)

// Version is one committed state transition.
type Version[O comparable] struct {
	id      uint64
	exclude map[O]struct{}
	readers atomic.Int64

	done     chan struct{}
	once     sync.Once
	released atomic.Int32
}

func newVersion[O comparable](id uint64, exclude map[O]struct{}) *Version[O] {
	return &Version[O]{
		id:      id,
		exclude: exclude,
		done:    make(chan struct{}),
	}
}

// ID returns the version id.
func (v *Version[O]) ID() uint64 { return v.id }

// Excludes reports whether o is hidden from readers of v.
func (v *Version[O]) Excludes(o O) bool {
	_, ok := v.exclude[o]
	return ok
}

// Visible is the inverse of Excludes.
func (v *Version[O]) Visible(o O) bool {
	return !v.Excludes(o)
}

// Excluded returns the size of the exclusion set.
func (v *Version[O]) Excluded() int { return len(v.exclude) }

// Readers returns the number of readers currently attached.
func (v *Version[O]) Readers() int64 { return v.readers.Load() }

// Done is closed once the last reader of a superseded version has left.
func (v *Version[O]) Done() <-chan struct{} { return v.done }

// signal releases the completion signal. Only the first call has an effect.
func (v *Version[O]) signal() {
	v.once.Do(func() {
		v.released.Add(1)
		close(v.done)
	})
}
