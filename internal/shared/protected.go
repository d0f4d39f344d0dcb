package shared

import "strings"

// ProtectedRoleName is the one role that can never be hard-deleted, either
// from the catalog or from a user. Comparison is case-insensitive.
const ProtectedRoleName = "voter"

// IsProtectedRole reports whether name refers to the protected role.
func IsProtectedRole(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), ProtectedRoleName)
}
