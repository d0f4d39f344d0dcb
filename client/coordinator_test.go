package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ballotworks/roleboard/internal/tagcache"
)

func countingFetch(counter *atomic.Int64, value any) FetchFunc {
	return func(ctx context.Context) (any, error) {
		counter.Add(1)
		return value, nil
	}
}

func TestQueryGetCachesResult(t *testing.T) {
	coord := NewCoordinator(8)
	var calls atomic.Int64
	q := coord.Register("k", []Tag{tagcache.TagRole}, countingFetch(&calls, "v1"))

	got, err := q.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v1", got)

	got, err = q.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v1", got)
	require.Equal(t, int64(1), calls.Load(), "second read is served from cache")
}

func TestInvalidateDropsCacheAndRefetches(t *testing.T) {
	coord := NewCoordinator(8)
	var calls atomic.Int64
	q := coord.Register("k", []Tag{tagcache.TagRole}, countingFetch(&calls, "fresh"))

	_, err := q.Get(context.Background())
	require.NoError(t, err)

	coord.Invalidate(tagcache.TagRole)

	select {
	case got := <-q.Updates():
		require.Equal(t, "fresh", got)
	case <-time.After(time.Second):
		t.Fatal("expected a refetched result after invalidation")
	}
	require.GreaterOrEqual(t, calls.Load(), int64(2))
}

func TestInvalidateUnrelatedTagLeavesCache(t *testing.T) {
	coord := NewCoordinator(8)
	var calls atomic.Int64
	q := coord.Register("k", []Tag{tagcache.TagRole}, countingFetch(&calls, "v"))

	_, err := q.Get(context.Background())
	require.NoError(t, err)

	coord.Invalidate(tagcache.TagPermission)
	time.Sleep(50 * time.Millisecond)

	_, err = q.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())
}

func TestDoubleInvalidationConvergesToOneState(t *testing.T) {
	coord := NewCoordinator(8)
	var calls atomic.Int64
	q := coord.Register("k", []Tag{tagcache.TagAssignment}, countingFetch(&calls, "stable"))

	_, err := q.Get(context.Background())
	require.NoError(t, err)

	coord.Invalidate(tagcache.TagAssignment)
	coord.Invalidate(tagcache.TagAssignment)

	select {
	case last := <-q.Updates():
		require.Equal(t, "stable", last)
	case <-time.After(time.Second):
		t.Fatal("expected a refetched result")
	}

	got, err := q.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "stable", got, "repeated invalidation settles on the same state as one")
}

func TestReRegisterSupersedesInFlightLoad(t *testing.T) {
	coord := NewCoordinator(8)
	release := make(chan struct{})
	slow := func(ctx context.Context) (any, error) {
		<-release
		return "old", nil
	}

	q := coord.Register("k", []Tag{tagcache.TagRole}, slow)

	firstDone := make(chan error, 1)
	go func() {
		_, err := q.Load(context.Background())
		firstDone <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// The same key re-registered with new parameters: the old response must
	// not land anywhere once it finally arrives.
	q = coord.Register("k", []Tag{tagcache.TagRole}, func(ctx context.Context) (any, error) {
		return "new", nil
	})
	got, err := q.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "new", got)

	close(release)
	require.ErrorIs(t, <-firstDone, ErrSuperseded)

	cached, err := q.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "new", cached)
}

func TestConcurrentLoadsCollapse(t *testing.T) {
	coord := NewCoordinator(8)
	var calls atomic.Int64
	release := make(chan struct{})
	q := coord.Register("k", []Tag{tagcache.TagRole}, func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	})

	results := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := q.Load(context.Background())
			results <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)

	first, second := <-results, <-results
	require.Equal(t, int64(1), calls.Load(), "concurrent loads share one flight")

	// One load wins and stores; the earlier-issued one is superseded.
	if first == nil {
		require.ErrorIs(t, second, ErrSuperseded)
	} else {
		require.ErrorIs(t, first, ErrSuperseded)
		require.NoError(t, second)
	}

	got, err := q.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "shared", got)
}

func TestInvalidateAllRefetchesEveryQuery(t *testing.T) {
	coord := NewCoordinator(8)
	var a, b atomic.Int64
	qa := coord.Register("a", []Tag{tagcache.TagRole}, countingFetch(&a, "a"))
	qb := coord.Register("b", []Tag{tagcache.TagAssignment}, countingFetch(&b, "b"))

	_, err := qa.Get(context.Background())
	require.NoError(t, err)
	_, err = qb.Get(context.Background())
	require.NoError(t, err)

	coord.InvalidateAll()

	for _, q := range []*Query{qa, qb} {
		select {
		case <-q.Updates():
		case <-time.After(time.Second):
			t.Fatal("expected every query to refetch")
		}
	}
}

func TestDeregisterStopsInvalidation(t *testing.T) {
	coord := NewCoordinator(8)
	var calls atomic.Int64
	q := coord.Register("k", []Tag{tagcache.TagRole}, countingFetch(&calls, "v"))

	_, err := q.Get(context.Background())
	require.NoError(t, err)

	coord.Deregister("k")
	coord.Invalidate(tagcache.TagRole)
	time.Sleep(50 * time.Millisecond)

	require.Equal(t, int64(1), calls.Load())
}
