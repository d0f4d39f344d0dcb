package roles

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ballotworks/roleboard/internal/shared"
)

type memoryRoleRepo struct {
	roles  map[int64]Role
	nextID int64
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{roles: make(map[int64]Role)}
}

func (r *memoryRoleRepo) List(ctx context.Context, req ListRolesRequest) ([]Role, error) {
	var list []Role
	for _, role := range r.roles {
		if req.Type != nil && role.Type != *req.Type {
			continue
		}
		if req.Category != nil && role.Category != *req.Category {
			continue
		}
		if req.IsActive != nil && role.IsActive != *req.IsActive {
			continue
		}
		list = append(list, role)
	}
	return list, nil
}

func (r *memoryRoleRepo) Get(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %d not found", shared.ErrNotFound, id)
	}
	return role, nil
}

func (r *memoryRoleRepo) GetByName(ctx context.Context, name string) (Role, error) {
	for _, role := range r.roles {
		if strings.EqualFold(role.Name, name) {
			return role, nil
		}
	}
	return Role{}, fmt.Errorf("%w: role %q not found", shared.ErrNotFound, name)
}

func (r *memoryRoleRepo) Create(ctx context.Context, role Role) (Role, error) {
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return Role{}, fmt.Errorf("%w: duplicate role name", shared.ErrConflict)
		}
	}
	r.nextID++
	role.ID = r.nextID
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRoleRepo) Update(ctx context.Context, id int64, updates map[string]any) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %d not found", shared.ErrNotFound, id)
	}
	if name, ok := updates["name"].(string); ok {
		role.Name = name
	}
	if active, ok := updates["is_active"].(bool); ok {
		role.IsActive = active
	}
	if desc, ok := updates["description"].(string); ok {
		role.Description = desc
	}
	role.UpdatedAt = time.Now()
	r.roles[id] = role
	return role, nil
}

func (r *memoryRoleRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return fmt.Errorf("%w: role %d not found", shared.ErrNotFound, id)
	}
	delete(r.roles, id)
	return nil
}

func seedRole(t *testing.T, svc *Service, name string) Role {
	t.Helper()
	role, err := svc.Create(context.Background(), CreateRoleRequest{
		Name:        name,
		Type:        "user",
		Category:    "voter",
		Description: "seeded for tests",
	})
	require.NoError(t, err)
	return role
}

func TestCreateRoleValidation(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)

	_, err := svc.Create(context.Background(), CreateRoleRequest{Type: "user", Category: "voter"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateRoleRequest{Name: "Editor", Type: "superuser", Category: "voter"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRoleDefaultsActive(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)
	role := seedRole(t, svc, "Moderator")
	require.True(t, role.IsActive)
	require.Equal(t, "Moderator", role.Name)
}

func TestDeleteProtectedRoleForbidden(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo, nil)

	for _, name := range []string{"voter", "Voter", "VOTER"} {
		repo.roles = map[int64]Role{}
		role := seedRole(t, svc, name)
		err := svc.Delete(context.Background(), role.ID)
		require.ErrorIs(t, err, shared.ErrForbidden)
		_, getErr := repo.Get(context.Background(), role.ID)
		require.NoError(t, getErr, "protected role must survive the refused delete")
	}
}

func TestDeleteRole(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo, nil)
	role := seedRole(t, svc, "Moderator")

	require.NoError(t, svc.Delete(context.Background(), role.ID))
	_, err := repo.Get(context.Background(), role.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Delete(context.Background(), role.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateSecondProtectedRoleConflict(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo, nil)
	seedRole(t, svc, "voter")

	for _, name := range []string{"voter", "Voter", "VOTER", " voter "} {
		_, err := svc.Create(context.Background(), CreateRoleRequest{
			Name:     name,
			Type:     "user",
			Category: "voter",
		})
		require.ErrorIs(t, err, shared.ErrConflict, "spelling %q must not yield a second protected role", name)
	}
	require.Len(t, repo.roles, 1)
}

func TestRenameOntoProtectedNameForbidden(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo, nil)
	seedRole(t, svc, "voter")
	other := seedRole(t, svc, "Moderator")

	for _, name := range []string{"voter", "VOTER"} {
		_, err := svc.Update(context.Background(), other.ID, UpdateRoleRequest{Name: &name})
		require.ErrorIs(t, err, shared.ErrForbidden)
	}
	current, err := repo.Get(context.Background(), other.ID)
	require.NoError(t, err)
	require.Equal(t, "Moderator", current.Name)
}

func TestRenameProtectedRoleForbidden(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)
	role := seedRole(t, svc, "voter")

	newName := "resident"
	_, err := svc.Update(context.Background(), role.ID, UpdateRoleRequest{Name: &newName})
	require.ErrorIs(t, err, shared.ErrForbidden)

	// Case-only changes keep the reserved name and stay allowed.
	caseOnly := "Voter"
	updated, err := svc.Update(context.Background(), role.ID, UpdateRoleRequest{Name: &caseOnly})
	require.NoError(t, err)
	require.Equal(t, "Voter", updated.Name)
}

func TestListRolesSearch(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)
	seedRole(t, svc, "Election Manager")
	seedRole(t, svc, "Sponsor Liaison")

	list, err := svc.List(context.Background(), ListRolesRequest{Search: "election"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Election Manager", list[0].Name)

	list, err = svc.List(context.Background(), ListRolesRequest{Search: "MANAGER"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = svc.List(context.Background(), ListRolesRequest{})
	require.NoError(t, err)
	require.Len(t, list, 2)
}
