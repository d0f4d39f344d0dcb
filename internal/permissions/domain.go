package permissions

import (
	"fmt"
	"strings"
	"time"

	"github.com/ballotworks/roleboard/internal/shared"
)

// PermissionCategory groups permissions for display.
type PermissionCategory string

const (
	CategoryAdmin     PermissionCategory = "admin"
	CategoryElection  PermissionCategory = "election"
	CategoryVoting    PermissionCategory = "voting"
	CategoryFinancial PermissionCategory = "financial"
	CategoryContent   PermissionCategory = "content"
	CategoryAnalytics PermissionCategory = "analytics"
	CategorySecurity  PermissionCategory = "security"
)

// ResourceType names the entity class a permission applies to.
type ResourceType string

const (
	ResourceUser          ResourceType = "user"
	ResourceElection      ResourceType = "election"
	ResourceVote          ResourceType = "vote"
	ResourcePayment       ResourceType = "payment"
	ResourceLottery       ResourceType = "lottery"
	ResourceContent       ResourceType = "content"
	ResourceSystem        ResourceType = "system"
	ResourceAudit         ResourceType = "audit"
	ResourceSecurity      ResourceType = "security"
	ResourceAnalytics     ResourceType = "analytics"
	ResourceAdvertisement ResourceType = "advertisement"
	ResourceRole          ResourceType = "role"
)

// ActionType names the operation a permission allows.
type ActionType string

const (
	ActionCreate  ActionType = "create"
	ActionRead    ActionType = "read"
	ActionUpdate  ActionType = "update"
	ActionDelete  ActionType = "delete"
	ActionExecute ActionType = "execute"
)

// Permission is an atomic capability check, bound to roles via the
// role-permission binding.
type Permission struct {
	ID          int64              `json:"permission_id"`
	Name        string             `json:"permission_name"`
	Category    PermissionCategory `json:"permission_category"`
	Resource    ResourceType       `json:"resource_type"`
	Action      ActionType         `json:"action_type"`
	Description string             `json:"description"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// OtherCategoryKey buckets permissions whose category is absent.
const OtherCategoryKey = "other"

// GroupByCategory partitions a permission list into a mapping from category
// name to the ordered sublist of permissions in that category.
func GroupByCategory(list []Permission) map[string][]Permission {
	grouped := make(map[string][]Permission)
	for _, p := range list {
		key := string(p.Category)
		if key == "" {
			key = OtherCategoryKey
		}
		grouped[key] = append(grouped[key], p)
	}
	return grouped
}

var (
	validCategories = map[PermissionCategory]struct{}{
		CategoryAdmin: {}, CategoryElection: {}, CategoryVoting: {},
		CategoryFinancial: {}, CategoryContent: {}, CategoryAnalytics: {},
		CategorySecurity: {},
	}
	validResources = map[ResourceType]struct{}{
		ResourceUser: {}, ResourceElection: {}, ResourceVote: {},
		ResourcePayment: {}, ResourceLottery: {}, ResourceContent: {},
		ResourceSystem: {}, ResourceAudit: {}, ResourceSecurity: {},
		ResourceAnalytics: {}, ResourceAdvertisement: {}, ResourceRole: {},
	}
	validActions = map[ActionType]struct{}{
		ActionCreate: {}, ActionRead: {}, ActionUpdate: {},
		ActionDelete: {}, ActionExecute: {},
	}
)

// ParseCategory normalizes a raw permission category at the ingestion boundary.
func ParseCategory(raw string) (PermissionCategory, error) {
	c := PermissionCategory(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validCategories[c]; !ok {
		return "", fmt.Errorf("%w: unknown permission category %q", shared.ErrValidation, raw)
	}
	return c, nil
}

// ParseResource normalizes a raw resource type at the ingestion boundary.
func ParseResource(raw string) (ResourceType, error) {
	r := ResourceType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validResources[r]; !ok {
		return "", fmt.Errorf("%w: unknown resource type %q", shared.ErrValidation, raw)
	}
	return r, nil
}

// ParseAction normalizes a raw action type at the ingestion boundary.
func ParseAction(raw string) (ActionType, error) {
	a := ActionType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validActions[a]; !ok {
		return "", fmt.Errorf("%w: unknown action type %q", shared.ErrValidation, raw)
	}
	return a, nil
}
