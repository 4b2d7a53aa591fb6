package mvcc

import "github.com/hupe1980/txcoll/store"

// applyAdds inserts b into s and reports whether anything changed.
func applyAdds[O comparable](s store.Store[O], b store.Batch[O]) (bool, error) {
	return apply(b, s.AddAll, s.Add)
}

// applyRemoves deletes b from s and reports whether anything changed.
func applyRemoves[O comparable](s store.Store[O], b store.Batch[O]) (bool, error) {
	return apply(b, s.RemoveAll, s.Remove)
}

// apply uses bulk for distinct batches and one for everything else. On error
// the items applied so far stay applied.
func apply[O comparable](b store.Batch[O], bulk func([]O) (bool, error), one func(O) (bool, error)) (bool, error) {
	if b.IsEmpty() {
		return false, nil
	}
	if b.Distinct() {
		return bulk(b.Items())
	}

	changed := false
	for o := range b.All() {
		ok, err := one(o)
		if err != nil {
			return changed, err
		}
		if ok {
			changed = true
		}
	}
	return changed, nil
}
