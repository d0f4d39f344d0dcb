package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ballotworks/roleboard/internal/permissions"
	"github.com/ballotworks/roleboard/internal/roles"
	"github.com/ballotworks/roleboard/internal/shared"
	"github.com/ballotworks/roleboard/internal/tagcache"
)

// ListRoles fetches the role catalog with the given filters. The free-text
// search narrows server-side.
func (c *Client) ListRoles(ctx context.Context, req roles.ListRolesRequest) ([]roles.Role, error) {
	query := url.Values{}
	if req.Type != nil {
		query.Set("role_type", string(*req.Type))
	}
	if req.Category != nil {
		query.Set("role_category", string(*req.Category))
	}
	if req.IsActive != nil {
		query.Set("is_active", strconv.FormatBool(*req.IsActive))
	}
	if req.Search != "" {
		query.Set("q", req.Search)
	}
	var list []roles.Role
	if err := c.do(ctx, http.MethodGet, "/roles", query, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RolesQuery registers the role listing as a coordinated query keyed by its
// filters and subscribed to role invalidations.
func (c *Client) RolesQuery(req roles.ListRolesRequest) *Query {
	key := fmt.Sprintf("roles:list:%s:%s:%s:%s",
		ptrLabel((*string)(req.Type)), ptrLabel((*string)(req.Category)), boolLabel(req.IsActive), req.Search)
	return c.coord.Register(key, tagcache.RoleWriteTags(), func(ctx context.Context) (any, error) {
		return c.ListRoles(ctx, req)
	})
}

// CreateRole adds a role to the catalog.
func (c *Client) CreateRole(ctx context.Context, req roles.CreateRoleRequest) (roles.Role, error) {
	var created roles.Role
	if err := c.do(ctx, http.MethodPost, "/roles", nil, req, &created); err != nil {
		return roles.Role{}, err
	}
	c.invalidate(tagcache.RoleWriteTags()...)
	return created, nil
}

// UpdateRole patches a role.
func (c *Client) UpdateRole(ctx context.Context, roleID int64, req roles.UpdateRoleRequest) (roles.Role, error) {
	var updated roles.Role
	path := fmt.Sprintf("/roles/%d", roleID)
	if err := c.do(ctx, http.MethodPut, path, nil, req, &updated); err != nil {
		return roles.Role{}, err
	}
	c.invalidate(tagcache.RoleWriteTags()...)
	return updated, nil
}

// DeleteRole removes a role from the catalog. The protected role is refused
// here, before any request is issued.
func (c *Client) DeleteRole(ctx context.Context, role roles.Role) error {
	if role.Protected() {
		return fmt.Errorf("%w: the %s role cannot be deleted", shared.ErrForbidden, shared.ProtectedRoleName)
	}
	path := fmt.Sprintf("/roles/%d", role.ID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}
	c.invalidate(tagcache.RoleWriteTags()...)
	return nil
}

// ListPermissions fetches the permission catalog with the given filters.
func (c *Client) ListPermissions(ctx context.Context, req permissions.ListPermissionsRequest) ([]permissions.Permission, error) {
	query := url.Values{}
	if req.Category != nil {
		query.Set("permission_category", string(*req.Category))
	}
	if req.Resource != nil {
		query.Set("resource_type", string(*req.Resource))
	}
	if req.Action != nil {
		query.Set("action_type", string(*req.Action))
	}
	if req.IsActive != nil {
		query.Set("is_active", strconv.FormatBool(*req.IsActive))
	}
	if req.Search != "" {
		query.Set("q", req.Search)
	}
	var list []permissions.Permission
	if err := c.do(ctx, http.MethodGet, "/permissions", query, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PermissionsByCategory fetches the catalog and buckets it by category, with
// uncategorised entries under the "other" key.
func (c *Client) PermissionsByCategory(ctx context.Context, req permissions.ListPermissionsRequest) (map[string][]permissions.Permission, error) {
	list, err := c.ListPermissions(ctx, req)
	if err != nil {
		return nil, err
	}
	return permissions.GroupByCategory(list), nil
}

// PermissionsQuery registers the permission listing as a coordinated query.
func (c *Client) PermissionsQuery(req permissions.ListPermissionsRequest) *Query {
	key := fmt.Sprintf("permissions:list:%s:%s:%s:%s:%s",
		ptrLabel((*string)(req.Category)), ptrLabel((*string)(req.Resource)),
		ptrLabel((*string)(req.Action)), boolLabel(req.IsActive), req.Search)
	return c.coord.Register(key, tagcache.PermissionWriteTags(), func(ctx context.Context) (any, error) {
		return c.ListPermissions(ctx, req)
	})
}

// CreatePermission adds a permission to the catalog.
func (c *Client) CreatePermission(ctx context.Context, req permissions.CreatePermissionRequest) (permissions.Permission, error) {
	var created permissions.Permission
	if err := c.do(ctx, http.MethodPost, "/permissions", nil, req, &created); err != nil {
		return permissions.Permission{}, err
	}
	c.invalidate(tagcache.PermissionWriteTags()...)
	return created, nil
}

// UpdatePermission patches a permission.
func (c *Client) UpdatePermission(ctx context.Context, permissionID int64, req permissions.UpdatePermissionRequest) (permissions.Permission, error) {
	var updated permissions.Permission
	path := fmt.Sprintf("/permissions/%d", permissionID)
	if err := c.do(ctx, http.MethodPut, path, nil, req, &updated); err != nil {
		return permissions.Permission{}, err
	}
	c.invalidate(tagcache.PermissionWriteTags()...)
	return updated, nil
}

// DeletePermission removes a permission from the catalog.
func (c *Client) DeletePermission(ctx context.Context, permissionID int64) error {
	path := fmt.Sprintf("/permissions/%d", permissionID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}
	c.invalidate(tagcache.PermissionWriteTags()...)
	return nil
}

func ptrLabel(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func boolLabel(p *bool) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatBool(*p)
}
