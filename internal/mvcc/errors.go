package mvcc

import (
	"errors"
	"fmt"
)

// ErrVersionMissing marks a registry lookup for a version that should still
// be registered. It is raised as a panic: it can only happen if the protocol
// invariants are broken.
var ErrVersionMissing = errors.New("mvcc: version missing from registry")

// Phase identifies the step of a mutation that touched the store.
type Phase int

const (
	// PhaseAdd is the physical insertion of additions.
	PhaseAdd Phase = iota + 1
	// PhaseRemove is the physical deletion of removals.
	PhaseRemove
)

func (p Phase) String() string {
	switch p {
	case PhaseAdd:
		return "add"
	case PhaseRemove:
		return "remove"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// PhaseError reports a store failure during a mutation phase.
//
// Items applied before the failure stay applied.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("mvcc: %s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
