// Package tagcache implements tag-based cache invalidation. Every read
// declares the tags it provides; every mutation declares the tags it
// invalidates. Invalidating a tag makes every subscribed reader of that tag
// stale, which is the only cross-view signal in the system.
package tagcache

import "strconv"

// Tag identifies a class of cached read results.
type Tag string

const (
	TagRole       Tag = "Role"
	TagPermission Tag = "Permission"
	TagAssignment Tag = "Assignment"
)

// RolePermissionsTag scopes the binding set of a single role.
func RolePermissionsTag(roleID int64) Tag {
	return Tag("RolePermissions:" + strconv.FormatInt(roleID, 10))
}

// AssignmentHistoryTag scopes the history of a single user.
func AssignmentHistoryTag(userID int64) Tag {
	return Tag("AssignmentHistory:" + strconv.FormatInt(userID, 10))
}

// UserRolesTag scopes the effective role set of a single user.
func UserRolesTag(userID int64) Tag {
	return Tag("UserRoles:" + strconv.FormatInt(userID, 10))
}

// The dependency graph between mutations and the reads they must refresh is
// declared here once, not re-derived at call sites.

// RoleWriteTags lists tags invalidated by role catalog mutations.
func RoleWriteTags() []Tag {
	return []Tag{TagRole}
}

// PermissionWriteTags lists tags invalidated by permission catalog mutations.
func PermissionWriteTags() []Tag {
	return []Tag{TagPermission}
}

// BindingWriteTags lists tags invalidated by binding a permission to or
// removing one from a role.
func BindingWriteTags(roleID int64) []Tag {
	return []Tag{RolePermissionsTag(roleID), TagPermission}
}

// AssignmentWriteTags lists tags invalidated by any assignment lifecycle
// mutation for the given user.
func AssignmentWriteTags(userID int64) []Tag {
	return []Tag{TagAssignment, AssignmentHistoryTag(userID), UserRolesTag(userID)}
}
