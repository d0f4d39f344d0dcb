package roles

import (
	"fmt"
	"strings"
	"time"

	"github.com/ballotworks/roleboard/internal/shared"
)

// RoleType classifies the audience of a role.
type RoleType string

const (
	TypeAdmin RoleType = "admin"
	TypeUser  RoleType = "user"
)

// RoleCategory groups roles by the platform area they belong to.
type RoleCategory string

const (
	CategoryPlatform        RoleCategory = "platform"
	CategoryElectionCreator RoleCategory = "election_creator"
	CategoryVoter           RoleCategory = "voter"
	CategorySponsor         RoleCategory = "sponsor"
)

// Role is a named, assignable capability bundle.
type Role struct {
	ID                    int64        `json:"role_id"`
	Name                  string       `json:"role_name"`
	Type                  RoleType     `json:"role_type"`
	Category              RoleCategory `json:"role_category"`
	Description           string       `json:"description"`
	RequiresSubscription  bool         `json:"requires_subscription"`
	RequiresActionTrigger bool         `json:"requires_action_trigger"`
	ActionTrigger         *string      `json:"action_trigger"`
	IsActive              bool         `json:"is_active"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// Protected reports whether this is the undeletable base role.
func (r Role) Protected() bool {
	return shared.IsProtectedRole(r.Name)
}

// ParseType normalizes a raw role type at the ingestion boundary.
func ParseType(raw string) (RoleType, error) {
	switch RoleType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeAdmin:
		return TypeAdmin, nil
	case TypeUser:
		return TypeUser, nil
	}
	return "", fmt.Errorf("%w: unknown role type %q", shared.ErrValidation, raw)
}

// ParseCategory normalizes a raw role category at the ingestion boundary.
func ParseCategory(raw string) (RoleCategory, error) {
	switch RoleCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryPlatform:
		return CategoryPlatform, nil
	case CategoryElectionCreator:
		return CategoryElectionCreator, nil
	case CategoryVoter:
		return CategoryVoter, nil
	case CategorySponsor:
		return CategorySponsor, nil
	}
	return "", fmt.Errorf("%w: unknown role category %q", shared.ErrValidation, raw)
}
