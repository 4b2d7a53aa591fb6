package txcoll

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/hupe1980/txcoll/memstore"
	"github.com/hupe1980/txcoll/store"
	"github.com/hupe1980/txcoll/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newCollection(t *testing.T, items ...string) *Collection[string] {
	t.Helper()
	c, err := New[string](memstore.NewFrom(items...))
	require.NoError(t, err)
	return c
}

func contents(t *testing.T, c *Collection[string], optFns ...CallOption) []string {
	t.Helper()
	var got []string
	err := c.View(store.All[string](), func(seq iter.Seq[string]) error {
		got = slices.Collect(seq)
		return nil
	}, optFns...)
	require.NoError(t, err)
	slices.Sort(got)
	return got
}

func TestNew_NilStore(t *testing.T) {
	_, err := New[string](nil)
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestCollection_Mutations(t *testing.T) {
	ctx := context.Background()
	c := newCollection(t)

	t.Run("add", func(t *testing.T) {
		ok, err := c.Add(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Add(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("add all", func(t *testing.T) {
		ok, err := c.AddAll(ctx, store.Set("b", "c", "d"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("remove", func(t *testing.T) {
		ok, err := c.Remove(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Remove(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("remove all", func(t *testing.T) {
		ok, err := c.RemoveAll(ctx, store.Of("b", "zzz"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("update", func(t *testing.T) {
		ok, err := c.Update(ctx, store.Set("c"), store.Set("e"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	assert.Equal(t, []string{"d", "e"}, contents(t, c))
}

func TestCollection_EmptyUpdate(t *testing.T) {
	c := newCollection(t, "a")
	before := c.Stats()

	ok, err := c.Update(context.Background(), store.Batch[string]{}, store.Batch[string]{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, c.Stats())
}

func TestCollection_RetainAllAndClear(t *testing.T) {
	ctx := context.Background()
	c := newCollection(t, "a", "b", "c")

	ok, err := c.RetainAll(ctx, store.Set("a", "c", "x"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, contents(t, c))

	ok, err = c.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, contents(t, c))

	ok, err = c.Clear(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollection_RetainAllUncommitted(t *testing.T) {
	c := newCollection(t, "a", "b")
	before := c.Stats().CurrentVersion

	ok, err := c.RetainAll(context.Background(), store.Set("b"), WithIsolation(ReadUncommitted))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, contents(t, c))
	assert.Equal(t, before, c.Stats().CurrentVersion)
}

func TestCollection_LenContains(t *testing.T) {
	c := newCollection(t, "a", "b", "c")

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ok, err := c.Contains("b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Contains("z", WithIsolation(ReadUncommitted))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, int64(0), c.Stats().Readers)
}

func TestCollection_RetrieveQuery(t *testing.T) {
	c := newCollection(t, "apple", "avocado", "banana")

	rs, err := c.Retrieve(func(s string) bool { return s[0] == 'a' })
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Stats().Readers)

	got := slices.Sorted(rs.All())
	require.NoError(t, rs.Close())

	assert.Equal(t, []string{"apple", "avocado"}, got)
	assert.Equal(t, int64(0), c.Stats().Readers)
}

func TestCollection_ViewClosesOnError(t *testing.T) {
	c := newCollection(t, "a")
	boom := errors.New("boom")

	err := c.View(store.All[string](), func(iter.Seq[string]) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), c.Stats().Readers)
}

func TestCollection_ViewClosesOnPanic(t *testing.T) {
	c := newCollection(t, "a")

	assert.Panics(t, func() {
		_ = c.View(store.All[string](), func(iter.Seq[string]) error { panic("boom") })
	})
	assert.Equal(t, int64(0), c.Stats().Readers)

	// A writer is not blocked by the aborted view.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Add(context.Background(), "b")
	}()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestCollection_IsolationLevels(t *testing.T) {
	hs := testutil.NewHookStore[string](memstore.NewFrom("a"))
	c, err := New[string](hs)
	require.NoError(t, err)

	gate := hs.PauseAfter(testutil.OpAddAll)
	done := make(chan error, 1)
	go func() {
		_, err := c.AddAll(context.Background(), store.Set("x", "y"))
		done <- err
	}()
	<-gate.Reached()

	assert.Equal(t, []string{"a"}, contents(t, c))
	assert.Equal(t, []string{"a", "x", "y"}, contents(t, c, WithIsolation(ReadUncommitted)))

	gate.Release()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"a", "x", "y"}, contents(t, c))
}

func TestCollection_UncommittedUpdate(t *testing.T) {
	c := newCollection(t, "a")
	before := c.Stats()

	ok, err := c.Update(context.Background(), store.Set("a"), store.Set("b"), WithIsolation(ReadUncommitted))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, before.CurrentVersion, c.Stats().CurrentVersion)
	assert.Equal(t, []string{"b"}, contents(t, c))
}

func TestCollection_ApplyError(t *testing.T) {
	boom := errors.New("disk full")
	c, err := New[string](testutil.NewFailingStore[string](memstore.NewFrom("a"), boom, testutil.OpRemoveAll))
	require.NoError(t, err)

	ok, err := c.Update(context.Background(), store.Set("a"), store.Set("b"))
	require.Error(t, err)
	assert.True(t, ok, "the add phase went through")

	var ae *ApplyError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "remove", ae.Phase)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "remove phase failed")

	assert.Equal(t, []string{"a", "b"}, contents(t, c))
	assert.Equal(t, 1, c.Stats().RetainedVersions)
}

func TestCollection_ContextCancelledWriter(t *testing.T) {
	hs := testutil.NewHookStore[string](memstore.New[string]())
	c, err := New[string](hs)
	require.NoError(t, err)

	gate := hs.PauseAfter(testutil.OpAddAll)
	done := make(chan error, 1)
	go func() {
		_, err := c.AddAll(context.Background(), store.Set("a"))
		done <- err
	}()
	<-gate.Reached()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Add(ctx, "b")
	assert.ErrorIs(t, err, context.Canceled)

	gate.Release()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"a"}, contents(t, c))
}

func TestCollection_Metrics(t *testing.T) {
	ctx := context.Background()
	mc := &BasicMetricsCollector{}
	c, err := New[string](memstore.New[string](), WithMetricsCollector(mc))
	require.NoError(t, err)

	_, err = c.Add(ctx, "a")
	require.NoError(t, err)
	_, err = c.Add(ctx, "a")
	require.NoError(t, err)
	_, err = c.Update(ctx, store.Set("a"), store.Set("b"))
	require.NoError(t, err)
	_, err = c.Add(ctx, "c", WithIsolation(ReadUncommitted))
	require.NoError(t, err)
	_, err = c.Len()
	require.NoError(t, err)

	assert.Equal(t, int64(4), mc.UpdateCount.Load())
	assert.Equal(t, int64(1), mc.UpdateNoops.Load())
	assert.Equal(t, int64(1), mc.UncommittedUpdates.Load())
	assert.Equal(t, int64(0), mc.UpdateErrors.Load())
	assert.Equal(t, int64(1), mc.RetrieveCount.Load())

	// Initial version, 2+2 for the two adds, 3 for the combined update.
	assert.Equal(t, int64(8), mc.VersionsCreated.Load())
	assert.Equal(t, int64(7), mc.VersionsRetired.Load())
}

func TestCollection_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, err := New[string](memstore.New[string](), WithLogger(logger))
	require.NoError(t, err)

	_, err = c.Add(context.Background(), "a")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"version published"`)
	assert.Contains(t, out, `"msg":"version retired"`)
	assert.Contains(t, out, `"msg":"update completed"`)
	assert.Contains(t, out, `"isolation":"READ_COMMITTED"`)
}

func TestCollection_NilOptions(t *testing.T) {
	c, err := New[string](memstore.New[string](), WithLogger(nil), WithMetricsCollector(nil))
	require.NoError(t, err)

	ok, err := c.Add(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCollection_ConcurrentTransfers(t *testing.T) {
	// Each key moves between its "-l" and "-r" form in a single update.
	// Committed readers must always see exactly one form of every key.
	keys := []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6", "k7"}
	initial := make([]string, 0, len(keys))
	for _, k := range keys {
		initial = append(initial, k+"-l")
	}
	c := newCollection(t, initial...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for range 4 {
		g.Go(func() error {
			for gctx.Err() == nil {
				n, err := c.Len()
				if err != nil {
					return err
				}
				if n != len(keys) {
					return errors.New("observed a half-applied transfer")
				}
			}
			return nil
		})
	}

	rng := testutil.NewRNG(42)
	for range 200 {
		k := keys[rng.Intn(len(keys))]
		left, right := k+"-l", k+"-r"
		ok, err := c.Contains(left)
		require.NoError(t, err)
		if !ok {
			left, right = right, left
		}
		_, err = c.Update(ctx, store.Set(left), store.Set(right))
		require.NoError(t, err)
	}
	cancel()
	require.NoError(t, g.Wait())

	st := c.Stats()
	assert.Equal(t, 1, st.RetainedVersions)
	assert.Equal(t, int64(0), st.Readers)
}

func TestIsolationLevel_String(t *testing.T) {
	assert.Equal(t, "READ_COMMITTED", ReadCommitted.String())
	assert.Equal(t, "READ_UNCOMMITTED", ReadUncommitted.String())
	assert.Equal(t, "UNKNOWN", IsolationLevel(9).String())
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, nil))

	logger.WithVersion(7).WithCount(3).Info("drained")

	out := buf.String()
	assert.Contains(t, out, "version=7")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "msg=drained")
}

func TestNoopLogger_Discards(t *testing.T) {
	logger := NoopLogger()

	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
