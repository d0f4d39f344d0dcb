package binding

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ballotworks/roleboard/internal/permissions"
	"github.com/ballotworks/roleboard/internal/shared"
	"github.com/ballotworks/roleboard/internal/tagcache"
)

type pair struct {
	roleID       int64
	permissionID int64
}

type memoryBindingRepo struct {
	catalog          map[int64]permissions.Permission
	pairs            map[pair]struct{}
	listForRoleCalls int
}

func newMemoryBindingRepo(catalog ...permissions.Permission) *memoryBindingRepo {
	repo := &memoryBindingRepo{
		catalog: make(map[int64]permissions.Permission),
		pairs:   make(map[pair]struct{}),
	}
	for _, p := range catalog {
		repo.catalog[p.ID] = p
	}
	return repo
}

func (r *memoryBindingRepo) ListForRole(ctx context.Context, roleID int64) ([]permissions.Permission, error) {
	r.listForRoleCalls++
	var list []permissions.Permission
	for p := range r.pairs {
		if p.roleID == roleID {
			list = append(list, r.catalog[p.permissionID])
		}
	}
	return list, nil
}

func (r *memoryBindingRepo) Assign(ctx context.Context, roleID, permissionID int64) error {
	r.pairs[pair{roleID, permissionID}] = struct{}{}
	return nil
}

func (r *memoryBindingRepo) Remove(ctx context.Context, roleID, permissionID int64) error {
	delete(r.pairs, pair{roleID, permissionID})
	return nil
}

func (r *memoryBindingRepo) ListForUser(ctx context.Context, userID int64) ([]permissions.Permission, error) {
	return nil, nil
}

func TestAssignIsSetSemantics(t *testing.T) {
	repo := newMemoryBindingRepo(permissions.Permission{ID: 7, Name: "manage_election"})
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.Assign(ctx, 1, 7))
	require.NoError(t, svc.Assign(ctx, 1, 7), "re-binding an existing pair is a no-op")

	list, err := svc.ListForRole(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRemoveMissingPairIsNoop(t *testing.T) {
	repo := newMemoryBindingRepo(permissions.Permission{ID: 7, Name: "manage_election"})
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.Remove(ctx, 1, 7))

	require.NoError(t, svc.Assign(ctx, 1, 7))
	require.NoError(t, svc.Remove(ctx, 1, 7))
	require.NoError(t, svc.Remove(ctx, 1, 7))

	list, err := svc.ListForRole(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestListForRoleServedFromVersionedCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := tagcache.NewCoordinator(client)

	repo := newMemoryBindingRepo(permissions.Permission{ID: 7, Name: "manage_election"})
	svc := NewService(repo, cache)
	ctx := context.Background()

	require.NoError(t, svc.Assign(ctx, 1, 7))

	first, err := svc.ListForRole(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	calls := repo.listForRoleCalls

	second, err := svc.ListForRole(ctx, 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, first[0].Name, second[0].Name)
	require.Equal(t, calls, repo.listForRoleCalls, "repeat read must come from the cache")

	// A binding write orphans the cached set.
	require.NoError(t, svc.Remove(ctx, 1, 7))
	refreshed, err := svc.ListForRole(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, refreshed)
	require.Greater(t, repo.listForRoleCalls, calls)
}

func TestBindingValidation(t *testing.T) {
	svc := NewService(newMemoryBindingRepo(), nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.Assign(ctx, 0, 7), shared.ErrValidation)
	require.ErrorIs(t, svc.Assign(ctx, 1, 0), shared.ErrValidation)
	require.ErrorIs(t, svc.Remove(ctx, -1, 7), shared.ErrValidation)
}
