package permissions

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ballotworks/roleboard/internal/shared"
	"github.com/ballotworks/roleboard/internal/tagcache"
)

// RepositoryPort defines data access methods for the permission catalog.
type RepositoryPort interface {
	List(ctx context.Context, req ListPermissionsRequest) ([]Permission, error)
	Get(ctx context.Context, id int64) (Permission, error)
	Create(ctx context.Context, perm Permission) (Permission, error)
	Update(ctx context.Context, id int64, updates map[string]any) (Permission, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles permission catalog business logic.
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

// List returns permissions matching the filters, narrowed by the free-text
// search over name and description.
func (s *Service) List(ctx context.Context, req ListPermissionsRequest) ([]Permission, error) {
	list, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Search) == "" {
		return list, nil
	}
	matched := make([]Permission, 0, len(list))
	for _, perm := range list {
		if shared.MatchesQuery(req.Search, perm.Name, perm.Description) {
			matched = append(matched, perm)
		}
	}
	return matched, nil
}

// Create validates and inserts a new permission.
func (s *Service) Create(ctx context.Context, req CreatePermissionRequest) (Permission, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return Permission{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	category, err := ParseCategory(req.Category)
	if err != nil {
		return Permission{}, err
	}
	resource, err := ParseResource(req.Resource)
	if err != nil {
		return Permission{}, err
	}
	action, err := ParseAction(req.Action)
	if err != nil {
		return Permission{}, err
	}
	perm := Permission{
		Name:        req.Name,
		Category:    category,
		Resource:    resource,
		Action:      action,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, perm)
	if err != nil {
		return Permission{}, err
	}
	_ = s.cache.Invalidate(ctx, tagcache.PermissionWriteTags()...)
	return created, nil
}

// Update applies a partial update to an existing permission.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePermissionRequest) (Permission, error) {
	if err := s.validate.Struct(req); err != nil {
		return Permission{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return Permission{}, fmt.Errorf("%w: permission name must not be empty", shared.ErrValidation)
		}
		updates["name"] = name
	}
	if req.Category != nil {
		category, err := ParseCategory(*req.Category)
		if err != nil {
			return Permission{}, err
		}
		updates["permission_category"] = string(category)
	}
	if req.Resource != nil {
		resource, err := ParseResource(*req.Resource)
		if err != nil {
			return Permission{}, err
		}
		updates["resource_type"] = string(resource)
	}
	if req.Action != nil {
		action, err := ParseAction(*req.Action)
		if err != nil {
			return Permission{}, err
		}
		updates["action_type"] = string(action)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	updated, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return Permission{}, err
	}
	_ = s.cache.Invalidate(ctx, tagcache.PermissionWriteTags()...)
	return updated, nil
}

// Delete removes a permission from the catalog.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, tagcache.PermissionWriteTags()...)
	return nil
}
