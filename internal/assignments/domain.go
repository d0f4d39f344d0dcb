// Package assignments implements the per-user role assignment lifecycle:
// created by assign, active until deactivated (soft, reason recorded,
// retained), hard-deleted (removed), or passively expired (observed by
// readers, never mutated by them).
package assignments

import (
	"fmt"
	"strings"
	"time"

	"github.com/ballotworks/roleboard/internal/shared"
)

// AssignmentType records how an assignment came to exist.
type AssignmentType string

const (
	TypeManual          AssignmentType = "manual"
	TypeAutomatic       AssignmentType = "automatic"
	TypeSubscription    AssignmentType = "subscription"
	TypeActionTriggered AssignmentType = "action_triggered"
)

// Assignment is a timestamped link between a user and a role.
type Assignment struct {
	ID                 string         `json:"assignment_id"`
	UserID             int64          `json:"user_id"`
	RoleID             int64          `json:"role_id"`
	RoleName           string         `json:"role_name"`
	Type               AssignmentType `json:"assignment_type"`
	AssignedAt         time.Time      `json:"assigned_at"`
	AssignedBy         *string        `json:"assigned_by"`
	IsActive           bool           `json:"is_active"`
	DeactivatedAt      *time.Time     `json:"deactivated_at"`
	DeactivatedBy      *string        `json:"deactivated_by"`
	DeactivationReason *string        `json:"deactivation_reason"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	Source             string         `json:"assignment_source"`
	Metadata           map[string]any `json:"metadata"`
}

// Protected reports whether this assignment binds the protected role and
// therefore must never be hard-deleted.
func (a Assignment) Protected() bool {
	return shared.IsProtectedRole(a.RoleName)
}

// EffectiveActive reports whether readers should treat the assignment as
// active at the given instant. An assignment whose expires_at is in the
// past is inactive even when is_active has not been flipped yet.
func (a Assignment) EffectiveActive(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}
	return true
}

// History action labels derived from an assignment's own fields.
const (
	ActionAssigned    = "assigned"
	ActionDeactivated = "deactivated"
	ActionInactive    = "inactive"
)

// HistoryAction derives the display action for a record. The derivation is
// a pure function of the record's own fields: a set deactivated_at wins,
// then a cleared is_active, then the default assigned state.
func HistoryAction(a Assignment) string {
	switch {
	case a.DeactivatedAt != nil:
		return ActionDeactivated
	case !a.IsActive:
		return ActionInactive
	default:
		return ActionAssigned
	}
}

// ParseType normalizes a raw assignment type at the ingestion boundary.
func ParseType(raw string) (AssignmentType, error) {
	switch AssignmentType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeManual:
		return TypeManual, nil
	case TypeAutomatic:
		return TypeAutomatic, nil
	case TypeSubscription:
		return TypeSubscription, nil
	case TypeActionTriggered:
		return TypeActionTriggered, nil
	}
	return "", fmt.Errorf("%w: unknown assignment type %q", shared.ErrValidation, raw)
}
