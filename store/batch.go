package store

import (
	"iter"
	"slices"
)

// Batch is an immutable group of objects handed to a mutation.
//
// A distinct batch holds no duplicates and is applied through the Store's
// bulk operations. Any other batch is applied one item at a time.
type Batch[O comparable] struct {
	items    []O
	distinct bool
}

// Set returns a distinct batch. Duplicate items are dropped, keeping the
// first occurrence.
func Set[O comparable](items ...O) Batch[O] {
	seen := make(map[O]struct{}, len(items))
	out := make([]O, 0, len(items))
	for _, o := range items {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return Batch[O]{items: out, distinct: true}
}

// Of returns a batch holding items as given.
func Of[O comparable](items ...O) Batch[O] {
	return Batch[O]{items: slices.Clone(items)}
}

// FromSeq materializes seq into a batch. The batch may be iterated any number
// of times afterwards, even if seq itself is single pass.
func FromSeq[O comparable](seq iter.Seq[O]) Batch[O] {
	return Batch[O]{items: slices.Collect(seq)}
}

// Len returns the number of items, duplicates included.
func (b Batch[O]) Len() int { return len(b.items) }

// IsEmpty reports whether the batch holds no items.
func (b Batch[O]) IsEmpty() bool { return len(b.items) == 0 }

// Distinct reports whether the batch was built deduplicated.
func (b Batch[O]) Distinct() bool { return b.distinct }

// All iterates the items in order.
func (b Batch[O]) All() iter.Seq[O] {
	return slices.Values(b.items)
}

// Items returns a copy of the items.
func (b Batch[O]) Items() []O {
	return slices.Clone(b.items)
}

// Index builds a membership set over the items.
func (b Batch[O]) Index() map[O]struct{} {
	m := make(map[O]struct{}, len(b.items))
	for _, o := range b.items {
		m[o] = struct{}{}
	}
	return m
}
