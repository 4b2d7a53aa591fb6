package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/txcoll/store"
)

// Op names a store.Store operation.
type Op int

const (
	OpAdd Op = iota
	OpRemove
	OpAddAll
	OpRemoveAll
	OpRetrieve
	numOps
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "Add"
	case OpRemove:
		return "Remove"
	case OpAddAll:
		return "AddAll"
	case OpRemoveAll:
		return "RemoveAll"
	case OpRetrieve:
		return "Retrieve"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Gate holds a paused store call.
type Gate struct {
	reached chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *Gate {
	return &Gate{
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
}

// Reached is closed once the paused call has completed on the underlying
// store and is waiting for Release.
func (g *Gate) Reached() <-chan struct{} { return g.reached }

// Release lets the paused call return. Calling it more than once is harmless.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// HookStore wraps a store, counting calls and optionally pausing them.
type HookStore[O comparable] struct {
	inner store.Store[O]

	mu    sync.Mutex
	gates map[Op]*Gate

	calls [numOps]atomic.Int64
}

var _ store.Store[int] = (*HookStore[int])(nil)

// NewHookStore wraps inner.
func NewHookStore[O comparable](inner store.Store[O]) *HookStore[O] {
	return &HookStore[O]{
		inner: inner,
		gates: make(map[Op]*Gate),
	}
}

// PauseAfter arms a one-shot gate: the next call of op runs against the
// underlying store and then blocks until the gate is released.
func (h *HookStore[O]) PauseAfter(op Op) *Gate {
	g := newGate()
	h.mu.Lock()
	h.gates[op] = g
	h.mu.Unlock()
	return g
}

// Calls returns how often op was called.
func (h *HookStore[O]) Calls(op Op) int64 {
	return h.calls[op].Load()
}

func (h *HookStore[O]) done(op Op) {
	h.calls[op].Add(1)

	h.mu.Lock()
	g := h.gates[op]
	delete(h.gates, op)
	h.mu.Unlock()

	if g != nil {
		close(g.reached)
		<-g.release
	}
}

func (h *HookStore[O]) Add(o O) (bool, error) {
	defer h.done(OpAdd)
	return h.inner.Add(o)
}

func (h *HookStore[O]) Remove(o O) (bool, error) {
	defer h.done(OpRemove)
	return h.inner.Remove(o)
}

func (h *HookStore[O]) AddAll(items []O) (bool, error) {
	defer h.done(OpAddAll)
	return h.inner.AddAll(items)
}

func (h *HookStore[O]) RemoveAll(items []O) (bool, error) {
	defer h.done(OpRemoveAll)
	return h.inner.RemoveAll(items)
}

func (h *HookStore[O]) Retrieve(q store.Query[O]) (store.ResultSet[O], error) {
	defer h.done(OpRetrieve)
	return h.inner.Retrieve(q)
}

// FailingStore wraps a store and fails selected operations with Err before
// they reach the underlying store.
type FailingStore[O comparable] struct {
	inner store.Store[O]
	err   error
	fail  map[Op]bool
}

var _ store.Store[int] = (*FailingStore[int])(nil)

// NewFailingStore returns a store failing ops with err.
func NewFailingStore[O comparable](inner store.Store[O], err error, ops ...Op) *FailingStore[O] {
	fail := make(map[Op]bool, len(ops))
	for _, op := range ops {
		fail[op] = true
	}
	return &FailingStore[O]{inner: inner, err: err, fail: fail}
}

func (f *FailingStore[O]) Add(o O) (bool, error) {
	if f.fail[OpAdd] {
		return false, f.err
	}
	return f.inner.Add(o)
}

func (f *FailingStore[O]) Remove(o O) (bool, error) {
	if f.fail[OpRemove] {
		return false, f.err
	}
	return f.inner.Remove(o)
}

func (f *FailingStore[O]) AddAll(items []O) (bool, error) {
	if f.fail[OpAddAll] {
		return false, f.err
	}
	return f.inner.AddAll(items)
}

func (f *FailingStore[O]) RemoveAll(items []O) (bool, error) {
	if f.fail[OpRemoveAll] {
		return false, f.err
	}
	return f.inner.RemoveAll(items)
}

func (f *FailingStore[O]) Retrieve(q store.Query[O]) (store.ResultSet[O], error) {
	if f.fail[OpRetrieve] {
		return nil, f.err
	}
	return f.inner.Retrieve(q)
}
