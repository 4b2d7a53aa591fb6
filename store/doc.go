// Package store defines the contract between txcoll and the collection that
// physically holds objects and evaluates queries.
//
// A Store is deliberately small:
//
//   - Add / Remove mutate a single object and report whether state changed
//   - AddAll / RemoveAll mutate a deduplicated batch in one call
//   - Retrieve evaluates a Query and returns a lazy, closeable ResultSet
//
// txcoll never inspects objects beyond equality. Indexing, query planning and
// storage layout are entirely the Store's concern.
//
// # Batches
//
// Callers describe mutations with a Batch. The constructor used decides how
// the batch is applied:
//
//	store.Set(a, b, c)     // deduplicated, applied with AddAll / RemoveAll
//	store.Of(a, b, a)      // as given, applied item by item
//	store.FromSeq(seq)     // materialized sequence, applied item by item
//
// # Result sets
//
// A ResultSet is single pass. It must be closed exactly when the consumer is
// done with it; txcoll relies on Close to track readers.
package store
