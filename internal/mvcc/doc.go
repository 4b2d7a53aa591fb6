// Package mvcc implements the versioning protocol behind READ_COMMITTED
// collections.
//
// # Versions
//
// Every committed mutation publishes up to three versions. A version names
// the objects readers attached to it must not see:
//
//	add phase     exclude additions  (not physically present yet)
//	remove phase  exclude removals   (still physically present)
//	clear phase   exclude nothing
//
// # Readers
//
// A reader increments the reader count of the current version, then checks
// that the version is still current. If the writer published a newer version
// in between, the reader backs out and retries. Both sides use sequentially
// consistent atomics, so either the reader sees the new pointer or the writer
// sees the reader's increment.
//
// On close, the goroutine whose decrement brings a superseded version's count
// to zero releases the version's completion signal.
//
// # Writers
//
// Writers are serialized by a single exclusive section. After publishing a
// version, the writer waits for every strictly older version to drain, then
// drops it from the registry. A writer never waits on the version it just
// published.
//
// A result set that is never closed pins its version forever and stalls the
// next writer. The registry logs a throttled warning while it waits but
// never gives up.
package mvcc
