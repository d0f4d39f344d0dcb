package binding

import (
	"context"
	"fmt"
	"time"

	"github.com/ballotworks/roleboard/internal/permissions"
	"github.com/ballotworks/roleboard/internal/shared"
	"github.com/ballotworks/roleboard/internal/tagcache"
)

// bindingCacheTTL bounds how long a cached permission set may outlive a
// version bump that never reached Redis.
const bindingCacheTTL = 5 * time.Minute

// RepositoryPort defines data access methods for role-permission pairs.
type RepositoryPort interface {
	ListForRole(ctx context.Context, roleID int64) ([]permissions.Permission, error)
	Assign(ctx context.Context, roleID, permissionID int64) error
	Remove(ctx context.Context, roleID, permissionID int64) error
	ListForUser(ctx context.Context, userID int64) ([]permissions.Permission, error)
}

// Service handles role-permission binding logic.
type Service struct {
	repo  RepositoryPort
	cache *tagcache.Coordinator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache *tagcache.Coordinator) *Service {
	return &Service{repo: repo, cache: cache}
}

// ListForRole returns the permission set currently bound to a role. Results
// are cached in Redis under the role's binding-tag version, so Assign and
// Remove orphan the cached set the moment they bump the tag.
func (s *Service) ListForRole(ctx context.Context, roleID int64) ([]permissions.Permission, error) {
	ver, err := s.cache.Version(ctx, tagcache.RolePermissionsTag(roleID))
	if err != nil {
		ver = 0
	}
	key := fmt.Sprintf("role-permissions:%d:v%d", roleID, ver)
	if ver > 0 {
		var cached []permissions.Permission
		if s.cache.GetCached(ctx, key, &cached) {
			return cached, nil
		}
	}
	list, err := s.repo.ListForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if ver > 0 {
		s.cache.SetCached(ctx, key, list, bindingCacheTTL)
	}
	return list, nil
}

// Assign binds a permission to a role. Binding an already-bound pair does
// not create a duplicate.
func (s *Service) Assign(ctx context.Context, roleID, permissionID int64) error {
	if roleID <= 0 || permissionID <= 0 {
		return fmt.Errorf("%w: role and permission are required", shared.ErrValidation)
	}
	if err := s.repo.Assign(ctx, roleID, permissionID); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, tagcache.BindingWriteTags(roleID)...)
	return nil
}

// Remove unbinds a permission from a role if the pair exists.
func (s *Service) Remove(ctx context.Context, roleID, permissionID int64) error {
	if roleID <= 0 || permissionID <= 0 {
		return fmt.Errorf("%w: role and permission are required", shared.ErrValidation)
	}
	if err := s.repo.Remove(ctx, roleID, permissionID); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, tagcache.BindingWriteTags(roleID)...)
	return nil
}

// ListForUser returns the permissions a user holds through active,
// unexpired role assignments.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]permissions.Permission, error) {
	return s.repo.ListForUser(ctx, userID)
}
