package tagcache

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCoordinator(client)
}

func TestVersionInitialisesOnce(t *testing.T) {
	coord := testCoordinator(t)
	ctx := context.Background()

	ver, err := coord.Version(ctx, TagRole)
	require.NoError(t, err)
	require.Equal(t, int64(1), ver)

	again, err := coord.Version(ctx, TagRole)
	require.NoError(t, err)
	require.Equal(t, ver, again)
}

func TestInvalidateBumpsVersion(t *testing.T) {
	coord := testCoordinator(t)
	ctx := context.Background()

	before, err := coord.Version(ctx, TagAssignment)
	require.NoError(t, err)

	require.NoError(t, coord.Invalidate(ctx, TagAssignment))
	after, err := coord.Version(ctx, TagAssignment)
	require.NoError(t, err)
	require.Greater(t, after, before)
}

func TestDoubleInvalidationConverges(t *testing.T) {
	coord := testCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.Invalidate(ctx, TagPermission))
	once, err := coord.Version(ctx, TagPermission)
	require.NoError(t, err)

	require.NoError(t, coord.Invalidate(ctx, TagPermission))
	twice, err := coord.Version(ctx, TagPermission)
	require.NoError(t, err)

	// The version differs but both states mean the same thing: every reader
	// keyed on an older version is stale either way.
	require.Greater(t, twice, once)
}

func TestSubscribeReceivesMatchingTags(t *testing.T) {
	coord := testCoordinator(t)
	ctx := context.Background()

	sub := coord.Subscribe(UserRolesTag(42))
	defer sub.Close()

	require.NoError(t, coord.Invalidate(ctx, AssignmentWriteTags(42)...))

	select {
	case tag := <-sub.Invalidations():
		require.Equal(t, UserRolesTag(42), tag)
	case <-time.After(time.Second):
		t.Fatal("expected an invalidation for the subscribed tag")
	}

	// Tags for other users never reach this subscription.
	require.NoError(t, coord.Invalidate(ctx, AssignmentWriteTags(7)...))
	select {
	case tag := <-sub.Invalidations():
		t.Fatalf("unexpected invalidation %q", tag)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAllTags(t *testing.T) {
	coord := testCoordinator(t)
	ctx := context.Background()

	sub := coord.Subscribe()
	defer sub.Close()

	require.NoError(t, coord.Invalidate(ctx, TagRole, TagPermission))

	got := map[Tag]bool{}
	for range 2 {
		select {
		case tag := <-sub.Invalidations():
			got[tag] = true
		case <-time.After(time.Second):
			t.Fatal("expected two invalidations")
		}
	}
	require.True(t, got[TagRole])
	require.True(t, got[TagPermission])
}

func TestOnInvalidateObserver(t *testing.T) {
	coord := testCoordinator(t)
	var seen []Tag
	coord.OnInvalidate(func(tag Tag) { seen = append(seen, tag) })

	require.NoError(t, coord.Invalidate(context.Background(), RoleWriteTags()...))
	require.NotEmpty(t, seen)
	require.Equal(t, TagRole, seen[0])
}

func TestInvalidateRedisFailureLogsAndStillNotifiesLocally(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	coord := NewCoordinator(client)

	var logs bytes.Buffer
	coord.UseLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	sub := coord.Subscribe(TagRole)
	defer sub.Close()

	require.NoError(t, client.Close())
	err := coord.Invalidate(context.Background(), TagRole)
	require.Error(t, err)
	require.Contains(t, logs.String(), "tag invalidation failed")
	require.Contains(t, logs.String(), string(TagRole))

	// In-process readers still learn their state is stale.
	select {
	case tag := <-sub.Invalidations():
		require.Equal(t, TagRole, tag)
	case <-time.After(time.Second):
		t.Fatal("expected the local fan-out to survive the Redis failure")
	}
}

func TestCachedPayloadOrphanedByVersionBump(t *testing.T) {
	coord := testCoordinator(t)
	ctx := context.Background()

	ver, err := coord.Version(ctx, TagPermission)
	require.NoError(t, err)
	key := fmt.Sprintf("perms:v%d", ver)
	coord.SetCached(ctx, key, []string{"vote.cast"}, time.Minute)

	var cached []string
	require.True(t, coord.GetCached(ctx, key, &cached))
	require.Equal(t, []string{"vote.cast"}, cached)

	require.NoError(t, coord.Invalidate(ctx, TagPermission))
	bumped, err := coord.Version(ctx, TagPermission)
	require.NoError(t, err)
	require.False(t, coord.GetCached(ctx, fmt.Sprintf("perms:v%d", bumped), &cached))
}

func TestNilCoordinatorIsSafe(t *testing.T) {
	var coord *Coordinator

	require.NoError(t, coord.Invalidate(context.Background(), TagRole))
	ver, err := coord.Version(context.Background(), TagRole)
	require.NoError(t, err)
	require.Zero(t, ver)
	require.NoError(t, coord.Listen(context.Background()))

	coord.SetCached(context.Background(), "k", "v", time.Minute)
	var out string
	require.False(t, coord.GetCached(context.Background(), "k", &out))
}

func TestWriteTagSets(t *testing.T) {
	tags := AssignmentWriteTags(42)
	require.Contains(t, tags, TagAssignment)
	require.Contains(t, tags, AssignmentHistoryTag(42))
	require.Contains(t, tags, UserRolesTag(42))

	binding := BindingWriteTags(7)
	require.Contains(t, binding, RolePermissionsTag(7))
	require.Contains(t, binding, TagPermission)
}
