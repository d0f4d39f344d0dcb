package assignments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ballotworks/roleboard/internal/roles"
	"github.com/ballotworks/roleboard/internal/shared"
	"github.com/ballotworks/roleboard/internal/tagcache"
)

// RepositoryPort defines data access methods for assignments.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Assignment, error)
	HasActive(ctx context.Context, userID int64, roleName string) (bool, error)
	Create(ctx context.Context, a Assignment) (Assignment, error)
	Deactivate(ctx context.Context, userID int64, roleName string, deactivatedBy *string, reason string, at time.Time) (Assignment, error)
	Delete(ctx context.Context, userID int64, roleName string) error
	History(ctx context.Context, userID int64, filters HistoryFilters) ([]Assignment, error)
}

// RoleResolver resolves a role name to its catalog record.
type RoleResolver interface {
	GetByName(ctx context.Context, name string) (roles.Role, error)
}

// Service orchestrates the assignment lifecycle.
type Service struct {
	repo     RepositoryPort
	roles    RoleResolver
	cache    *tagcache.Coordinator
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, roleResolver RoleResolver, cache *tagcache.Coordinator) *Service {
	return &Service{
		repo:     repo,
		roles:    roleResolver,
		cache:    cache,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Assign creates an active assignment linking the user to the named role.
// The caller identity is recorded as assigned_by and may never be erased by
// any later operation in this subsystem.
func (s *Service) Assign(ctx context.Context, actor shared.Identity, req AssignRequest) (Assignment, error) {
	req.RoleName = strings.TrimSpace(req.RoleName)
	if err := s.validate.Struct(req); err != nil {
		return Assignment{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	assignmentType, err := ParseType(req.Type)
	if err != nil {
		return Assignment{}, err
	}
	role, err := s.roles.GetByName(ctx, req.RoleName)
	if err != nil {
		return Assignment{}, err
	}
	active, err := s.repo.HasActive(ctx, req.UserID, role.Name)
	if err != nil {
		return Assignment{}, err
	}
	if active {
		return Assignment{}, fmt.Errorf("%w: user %d already holds an active %s assignment", shared.ErrConflict, req.UserID, role.Name)
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "api"
	}
	var assignedBy *string
	if by := actor.Actor(); by != "" {
		assignedBy = &by
	}
	created, err := s.repo.Create(ctx, Assignment{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		RoleID:     role.ID,
		RoleName:   role.Name,
		Type:       assignmentType,
		AssignedAt: s.now().UTC(),
		AssignedBy: assignedBy,
		ExpiresAt:  req.ExpiresAt,
		Source:     source,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return Assignment{}, err
	}
	_ = s.cache.Invalidate(ctx, tagcache.AssignmentWriteTags(req.UserID)...)
	return created, nil
}

// Deactivate soft-removes an active assignment, recording who and why. The
// record stays visible in history. The protected role cannot be deactivated.
func (s *Service) Deactivate(ctx context.Context, actor shared.Identity, req DeactivateRequest) (Assignment, error) {
	req.RoleName = strings.TrimSpace(req.RoleName)
	if err := s.validate.Struct(req); err != nil {
		return Assignment{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if shared.IsProtectedRole(req.RoleName) {
		return Assignment{}, fmt.Errorf("%w: the %s role cannot be deactivated", shared.ErrForbidden, shared.ProtectedRoleName)
	}
	var deactivatedBy *string
	if by := actor.Actor(); by != "" {
		deactivatedBy = &by
	}
	updated, err := s.repo.Deactivate(ctx, req.UserID, req.RoleName, deactivatedBy, strings.TrimSpace(req.Reason), s.now().UTC())
	if err != nil {
		return Assignment{}, err
	}
	_ = s.cache.Invalidate(ctx, tagcache.AssignmentWriteTags(req.UserID)...)
	return updated, nil
}

// DeleteResult reports a hard delete back to the caller.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
	// SelfDelete flags that the acting user removed one of their own
	// assignments, so their effective permission set changed and clients
	// must reload local state once the delete is confirmed.
	SelfDelete bool `json:"self_delete"`
}

// Delete hard-removes the assignment. The protected role is refused before
// any storage access. Irreversible: the record disappears from all future
// reads, including history.
func (s *Service) Delete(ctx context.Context, actor shared.Identity, req DeleteRequest) (DeleteResult, error) {
	req.RoleName = strings.TrimSpace(req.RoleName)
	if err := s.validate.Struct(req); err != nil {
		return DeleteResult{}, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if shared.IsProtectedRole(req.RoleName) {
		return DeleteResult{}, fmt.Errorf("%w: the %s role cannot be removed from a user", shared.ErrForbidden, shared.ProtectedRoleName)
	}
	if err := s.repo.Delete(ctx, req.UserID, req.RoleName); err != nil {
		return DeleteResult{}, err
	}
	_ = s.cache.Invalidate(ctx, tagcache.AssignmentWriteTags(req.UserID)...)
	return DeleteResult{Deleted: true, SelfDelete: actor.UserID == req.UserID}, nil
}

// List returns the flat assignment set with stats recomputed from it.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Assignment, Stats, error) {
	list, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, Stats{}, err
	}
	return list, ComputeStats(list), nil
}

// ListGrouped returns assignments grouped per user in first-seen order.
func (s *Service) ListGrouped(ctx context.Context, filters ListFilters) ([]UserGroup, Stats, error) {
	list, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, Stats{}, err
	}
	return GroupByUser(list), ComputeStats(list), nil
}

// RolesForUser returns the user's effectively active assignments: active
// per is_active and not past expiry at read time.
func (s *Service) RolesForUser(ctx context.Context, userID int64) ([]Assignment, error) {
	active := true
	list, err := s.repo.List(ctx, ListFilters{UserID: &userID, IsActive: &active})
	if err != nil {
		return nil, err
	}
	now := s.now()
	effective := make([]Assignment, 0, len(list))
	for _, a := range list {
		if a.EffectiveActive(now) {
			effective = append(effective, a)
		}
	}
	return effective, nil
}
