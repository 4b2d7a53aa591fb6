// Package testutil provides testing utilities for txcoll.
//
// This package is intended for use in tests and benchmarks only.
//
// # Deterministic Data
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.Keys(100)          // 100 distinct ints
//	some := rng.Sample(keys, 0.5)  // roughly half of them
//
// # Interleaving Writers and Readers
//
// HookStore wraps a store and can pause the next call of an operation after
// it reached the underlying store, which lets a test freeze a writer between
// mutation phases:
//
//	hs := testutil.NewHookStore[int](memstore.New[int]())
//	gate := hs.PauseAfter(testutil.OpAddAll)
//	go coll.AddAll(ctx, store.Set(1, 2))
//	<-gate.Reached()  // writer is between the add and clear phases
//	...
//	gate.Release()
//
// # Fault Injection
//
//	fs := testutil.NewFailingStore[int](memstore.New[int](), errBoom, testutil.OpRemoveAll)
package testutil
