package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ballotworks/roleboard/internal/permissions"
	"github.com/ballotworks/roleboard/internal/tagcache"
)

type bindingPair struct {
	RoleID       int64 `json:"roleId"`
	PermissionID int64 `json:"permissionId"`
}

// RolePermissions fetches the permission set currently bound to a role.
func (c *Client) RolePermissions(ctx context.Context, roleID int64) ([]permissions.Permission, error) {
	var list []permissions.Permission
	path := fmt.Sprintf("/roles/%d/permissions", roleID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RolePermissionsQuery registers a role's permission set as a coordinated
// query keyed by role.
func (c *Client) RolePermissionsQuery(roleID int64) *Query {
	key := fmt.Sprintf("binding:role:%d", roleID)
	return c.coord.Register(key, tagcache.BindingWriteTags(roleID), func(ctx context.Context) (any, error) {
		return c.RolePermissions(ctx, roleID)
	})
}

// AssignPermission binds a permission to a role. Assigning an already-bound
// pair is a no-op on the server, never an error.
func (c *Client) AssignPermission(ctx context.Context, roleID, permissionID int64) error {
	body := bindingPair{RoleID: roleID, PermissionID: permissionID}
	if err := c.do(ctx, http.MethodPost, "/role-permissions/assign", nil, body, nil); err != nil {
		return err
	}
	c.invalidate(tagcache.BindingWriteTags(roleID)...)
	return nil
}

// RemovePermission unbinds a permission from a role. Removing an unbound
// pair is a no-op on the server.
func (c *Client) RemovePermission(ctx context.Context, roleID, permissionID int64) error {
	body := bindingPair{RoleID: roleID, PermissionID: permissionID}
	if err := c.do(ctx, http.MethodPost, "/role-permissions/remove", nil, body, nil); err != nil {
		return err
	}
	c.invalidate(tagcache.BindingWriteTags(roleID)...)
	return nil
}

// ToggleRolePermission flips one binding. The direction is decided from a
// fresh fetch of the role's current set rather than any cached copy, so two
// racing toggles settle into set semantics instead of erroring.
func (c *Client) ToggleRolePermission(ctx context.Context, roleID, permissionID int64) (bound bool, err error) {
	current, err := c.RolePermissions(ctx, roleID)
	if err != nil {
		return false, err
	}
	for _, p := range current {
		if p.ID == permissionID {
			if err := c.RemovePermission(ctx, roleID, permissionID); err != nil {
				return false, err
			}
			return false, nil
		}
	}
	if err := c.AssignPermission(ctx, roleID, permissionID); err != nil {
		return false, err
	}
	return true, nil
}

// UserPermissions fetches the distinct permissions a user holds through
// their active role assignments.
func (c *Client) UserPermissions(ctx context.Context, userID int64) ([]permissions.Permission, error) {
	var list []permissions.Permission
	path := fmt.Sprintf("/users/%d/permissions", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
