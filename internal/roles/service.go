package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ballotworks/roleboard/internal/shared"
	"github.com/ballotworks/roleboard/internal/tagcache"
)

// RepositoryPort defines data access methods for the role catalog.
type RepositoryPort interface {
	List(ctx context.Context, req ListRolesRequest) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, id int64, updates map[string]any) (Role, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles role catalog business logic.
type Service struct {
	repo     RepositoryPort
	cache    *tagcache.Coordinator
	validate *validator.Validate
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache *tagcache.Coordinator) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		validate: validator.New(),
	}
}

// List returns roles matching the filters, narrowed by the free-text search
// over name and description.
func (s *Service) List(ctx context.Context, req ListRolesRequest) ([]Role, error) {
	list, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Search) == "" {
		return list, nil
	}
	matched := make([]Role, 0, len(list))
	for _, role := range list {
		if shared.MatchesQuery(req.Search, role.Name, role.Description) {
			matched = append(matched, role)
		}
	}
	return matched, nil
}

// Create validates and inserts a new role.
func (s *Service) Create(ctx context.Context, req CreateRoleRequest) (Role, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return Role{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	roleType, err := ParseType(req.Type)
	if err != nil {
		return Role{}, err
	}
	category, err := ParseCategory(req.Category)
	if err != nil {
		return Role{}, err
	}
	// Only one role may carry the reserved name, in any spelling. The
	// name column's unique index is case-sensitive, so the guard lives here.
	if shared.IsProtectedRole(req.Name) {
		if _, err := s.repo.GetByName(ctx, shared.ProtectedRoleName); err == nil {
			return Role{}, fmt.Errorf("%w: the %s role already exists", shared.ErrConflict, shared.ProtectedRoleName)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return Role{}, err
		}
	}
	role := Role{
		Name:                  req.Name,
		Type:                  roleType,
		Category:              category,
		Description:           strings.TrimSpace(req.Description),
		RequiresSubscription:  req.RequiresSubscription,
		RequiresActionTrigger: req.RequiresActionTrigger,
		ActionTrigger:         req.ActionTrigger,
		IsActive:              true,
	}
	created, err := s.repo.Create(ctx, role)
	if err != nil {
		return Role{}, err
	}
	_ = s.cache.Invalidate(ctx, tagcache.RoleWriteTags()...)
	return created, nil
}

// Update applies a partial update to an existing role.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRoleRequest) (Role, error) {
	if err := s.validate.Struct(req); err != nil {
		return Role{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return Role{}, fmt.Errorf("%w: role name must not be empty", shared.ErrValidation)
		}
		existing, err := s.repo.Get(ctx, id)
		if err != nil {
			return Role{}, err
		}
		// Renaming the protected role away from its reserved name would
		// defeat the delete guard.
		if existing.Protected() && !shared.IsProtectedRole(name) {
			return Role{}, fmt.Errorf("%w: the %s role cannot be renamed", shared.ErrForbidden, shared.ProtectedRoleName)
		}
		if !existing.Protected() && shared.IsProtectedRole(name) {
			return Role{}, fmt.Errorf("%w: %s is a reserved role name", shared.ErrForbidden, shared.ProtectedRoleName)
		}
		updates["name"] = name
	}
	if req.Type != nil {
		roleType, err := ParseType(*req.Type)
		if err != nil {
			return Role{}, err
		}
		updates["role_type"] = string(roleType)
	}
	if req.Category != nil {
		category, err := ParseCategory(*req.Category)
		if err != nil {
			return Role{}, err
		}
		updates["role_category"] = string(category)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.RequiresSubscription != nil {
		updates["requires_subscription"] = *req.RequiresSubscription
	}
	if req.RequiresActionTrigger != nil {
		updates["requires_action_trigger"] = *req.RequiresActionTrigger
	}
	if req.ActionTrigger != nil {
		updates["action_trigger"] = *req.ActionTrigger
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	updated, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return Role{}, err
	}
	_ = s.cache.Invalidate(ctx, tagcache.RoleWriteTags()...)
	return updated, nil
}

// Delete removes a role from the catalog. The protected role is refused
// unconditionally.
func (s *Service) Delete(ctx context.Context, id int64) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if role.Protected() {
		return fmt.Errorf("%w: the %s role cannot be deleted", shared.ErrForbidden, shared.ProtectedRoleName)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	// The delete cascades to the role's bindings, so their tag bumps too.
	_ = s.cache.Invalidate(ctx, append(tagcache.RoleWriteTags(), tagcache.RolePermissionsTag(id))...)
	return nil
}

// GetByName resolves a role by its case-insensitive name.
func (s *Service) GetByName(ctx context.Context, name string) (Role, error) {
	return s.repo.GetByName(ctx, name)
}
