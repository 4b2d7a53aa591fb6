// Package txcoll adds READ_COMMITTED isolation to queryable in-memory
// collections.
//
// A Collection wraps a store.Store, which holds the objects and evaluates
// queries, and runs every mutation through a multi-version concurrency
// control protocol. Readers see a consistent view while writers mutate the
// store, and never block.
//
// # Quick Start
//
//	ctx := context.Background()
//	coll, _ := txcoll.New[string](memstore.New[string]())
//
//	coll.Add(ctx, "a")
//	coll.AddAll(ctx, store.Set("b", "c"))
//	coll.Remove(ctx, "a")
//
//	err := coll.View(store.All[string](), func(seq iter.Seq[string]) error {
//	    for s := range seq {
//	        fmt.Println(s) // b, c
//	    }
//	    return nil
//	})
//
// # Isolation Levels
//
// Every call takes an optional isolation level:
//
//	coll.Retrieve(q)                                          // READ_COMMITTED
//	coll.Retrieve(q, txcoll.WithIsolation(txcoll.ReadUncommitted)) // direct
//
// READ_COMMITTED (the default) filters results against the version the
// reader attached to. READ_UNCOMMITTED talks to the store directly: lower
// latency, but mutations in progress are visible.
//
// # Closing Result Sets
//
// A committed result set pins its version until it is closed. The next
// committed writer waits for it, indefinitely. Always close result sets on
// every path, or use View, which does it for you:
//
//	rs, err := coll.Retrieve(q)
//	if err != nil {
//	    return err
//	}
//	defer rs.Close()
//
// Closing twice is harmless.
//
// # Mutation Atomicity
//
// The unit of atomicity is a single Update call. There are no multi-call
// transactions, no conflict detection between writers and no rollback: if the
// store fails halfway, the items applied so far stay applied.
package txcoll
