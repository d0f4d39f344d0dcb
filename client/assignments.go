package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ballotworks/roleboard/internal/assignments"
	"github.com/ballotworks/roleboard/internal/roles"
	"github.com/ballotworks/roleboard/internal/shared"
	"github.com/ballotworks/roleboard/internal/tagcache"
)

// AssignmentList is the flat listing with its derived stats.
type AssignmentList struct {
	Assignments []assignments.Assignment `json:"assignments"`
	Stats       assignments.Stats        `json:"stats"`
}

// GroupedAssignmentList is the per-user listing with its derived stats.
type GroupedAssignmentList struct {
	Groups []assignments.UserGroup `json:"groups"`
	Stats  assignments.Stats       `json:"stats"`
}

func assignmentQuery(filters assignments.ListFilters) url.Values {
	query := url.Values{}
	if filters.UserID != nil {
		query.Set("user_id", strconv.FormatInt(*filters.UserID, 10))
	}
	if filters.RoleID != nil {
		query.Set("role_id", strconv.FormatInt(*filters.RoleID, 10))
	}
	if filters.IsActive != nil {
		query.Set("is_active", strconv.FormatBool(*filters.IsActive))
	}
	if filters.Type != nil {
		query.Set("assignment_type", string(*filters.Type))
	}
	return query
}

// Assignments fetches the flat assignment listing.
func (c *Client) Assignments(ctx context.Context, filters assignments.ListFilters) (AssignmentList, error) {
	var result AssignmentList
	if err := c.do(ctx, http.MethodGet, "/assignments", assignmentQuery(filters), nil, &result); err != nil {
		return AssignmentList{}, err
	}
	return result, nil
}

// GroupedAssignments fetches the listing grouped by user.
func (c *Client) GroupedAssignments(ctx context.Context, filters assignments.ListFilters) (GroupedAssignmentList, error) {
	query := assignmentQuery(filters)
	query.Set("grouped", "true")
	var result GroupedAssignmentList
	if err := c.do(ctx, http.MethodGet, "/assignments", query, nil, &result); err != nil {
		return GroupedAssignmentList{}, err
	}
	return result, nil
}

// AssignmentsQuery registers the flat listing as a coordinated query keyed
// by its filters.
func (c *Client) AssignmentsQuery(filters assignments.ListFilters) *Query {
	key := "assignments:list:" + assignmentQuery(filters).Encode()
	return c.coord.Register(key, []Tag{tagcache.TagAssignment}, func(ctx context.Context) (any, error) {
		return c.Assignments(ctx, filters)
	})
}

// Assign grants a role to a user. The required fields are checked here
// first: a request missing any of them is refused without touching the
// network.
func (c *Client) Assign(ctx context.Context, req assignments.AssignRequest) (assignments.Assignment, error) {
	if req.UserID <= 0 || strings.TrimSpace(req.RoleName) == "" || strings.TrimSpace(req.Type) == "" {
		return assignments.Assignment{}, fmt.Errorf("%w: user_id, role_name and assignment_type are required", shared.ErrValidation)
	}
	var created assignments.Assignment
	if err := c.do(ctx, http.MethodPost, "/assignments", nil, req, &created); err != nil {
		return assignments.Assignment{}, err
	}
	c.invalidate(tagcache.AssignmentWriteTags(req.UserID)...)
	return created, nil
}

// Deactivate retires an active assignment, keeping the record visible in
// history. Missing fields and the protected role are both refused before
// any request is issued.
func (c *Client) Deactivate(ctx context.Context, req assignments.DeactivateRequest) (assignments.Assignment, error) {
	if req.UserID <= 0 || strings.TrimSpace(req.RoleName) == "" || strings.TrimSpace(req.Reason) == "" {
		return assignments.Assignment{}, fmt.Errorf("%w: user_id, role_name and reason are required", shared.ErrValidation)
	}
	if shared.IsProtectedRole(req.RoleName) {
		return assignments.Assignment{}, fmt.Errorf("%w: the %s role cannot be removed from a user", shared.ErrForbidden, shared.ProtectedRoleName)
	}
	var updated assignments.Assignment
	if err := c.do(ctx, http.MethodPost, "/assignments/deactivate", nil, req, &updated); err != nil {
		return assignments.Assignment{}, err
	}
	c.invalidate(tagcache.AssignmentWriteTags(req.UserID)...)
	return updated, nil
}

// Delete hard-removes an assignment. Missing fields and the protected role
// are both refused before any request is issued. When the confirmed delete
// targeted the caller's own assignment, the full local state is reloaded
// after a short delay, since the caller's effective access may have changed.
func (c *Client) Delete(ctx context.Context, req assignments.DeleteRequest) (assignments.DeleteResult, error) {
	if req.UserID <= 0 || strings.TrimSpace(req.RoleName) == "" {
		return assignments.DeleteResult{}, fmt.Errorf("%w: user_id and role_name are required", shared.ErrValidation)
	}
	if shared.IsProtectedRole(req.RoleName) {
		return assignments.DeleteResult{}, fmt.Errorf("%w: the %s role cannot be removed from a user", shared.ErrForbidden, shared.ProtectedRoleName)
	}
	var result assignments.DeleteResult
	if err := c.do(ctx, http.MethodDelete, "/assignments", nil, req, &result); err != nil {
		return assignments.DeleteResult{}, err
	}
	c.invalidate(tagcache.AssignmentWriteTags(req.UserID)...)
	if result.SelfDelete && c.coord != nil {
		time.AfterFunc(c.reloadDelay, c.coord.InvalidateAll)
	}
	return result, nil
}

// UserRoles fetches the roles a user currently holds through active,
// unexpired assignments.
func (c *Client) UserRoles(ctx context.Context, userID int64) ([]roles.Role, error) {
	var list []roles.Role
	path := fmt.Sprintf("/users/%d/roles", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UserRolesQuery registers a user's role set as a coordinated query.
func (c *Client) UserRolesQuery(userID int64) *Query {
	key := fmt.Sprintf("users:%d:roles", userID)
	return c.coord.Register(key, []Tag{tagcache.UserRolesTag(userID)}, func(ctx context.Context) (any, error) {
		return c.UserRoles(ctx, userID)
	})
}

// UserHistory fetches a user's assignment records newest-first, each with
// its derived action label.
func (c *Client) UserHistory(ctx context.Context, userID int64, filters assignments.HistoryFilters) ([]assignments.HistoryEntry, error) {
	query := url.Values{}
	if filters.IsActive != nil {
		query.Set("is_active", strconv.FormatBool(*filters.IsActive))
	}
	if filters.Limit > 0 {
		query.Set("limit", strconv.Itoa(filters.Limit))
	}
	var entries []assignments.HistoryEntry
	path := fmt.Sprintf("/users/%d/assignment-history", userID)
	if err := c.do(ctx, http.MethodGet, path, query, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// UserHistoryQuery registers a user's history as a coordinated query.
func (c *Client) UserHistoryQuery(userID int64, filters assignments.HistoryFilters) *Query {
	key := fmt.Sprintf("users:%d:history:%s:%d", userID, boolLabel(filters.IsActive), filters.Limit)
	return c.coord.Register(key, []Tag{tagcache.AssignmentHistoryTag(userID)}, func(ctx context.Context) (any, error) {
		return c.UserHistory(ctx, userID, filters)
	})
}
