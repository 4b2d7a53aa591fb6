package txcoll

import (
	"errors"
	"fmt"

	"github.com/hupe1980/txcoll/internal/mvcc"
)

var (
	// ErrNilStore is returned by New when no backing store is given.
	ErrNilStore = errors.New("txcoll: nil store")
)

// ApplyError indicates the backing store failed while a mutation was being
// applied. Phase is "add" or "remove".
//
// Items applied before the failure stay applied; a committed mutation still
// lifts its exclusions before returning.
//
// The original underlying error can be accessed via errors.Unwrap.
type ApplyError struct {
	Phase string
	cause error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("txcoll: %s phase failed: %v", e.Phase, e.cause)
}

func (e *ApplyError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pe *mvcc.PhaseError
	if errors.As(err, &pe) {
		return &ApplyError{Phase: pe.Phase.String(), cause: pe.Err}
	}

	return err
}
