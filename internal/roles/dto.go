package roles

type CreateRoleRequest struct {
	Name                  string  `json:"role_name" validate:"required,max=100"`
	Type                  string  `json:"role_type" validate:"required,oneof=admin user"`
	Category              string  `json:"role_category" validate:"required,oneof=platform election_creator voter sponsor"`
	Description           string  `json:"description" validate:"max=1000"`
	RequiresSubscription  bool    `json:"requires_subscription"`
	RequiresActionTrigger bool    `json:"requires_action_trigger"`
	ActionTrigger         *string `json:"action_trigger,omitempty" validate:"omitempty,max=100"`
}

type UpdateRoleRequest struct {
	Name                  *string `json:"role_name,omitempty" validate:"omitempty,max=100"`
	Type                  *string `json:"role_type,omitempty" validate:"omitempty,oneof=admin user"`
	Category              *string `json:"role_category,omitempty" validate:"omitempty,oneof=platform election_creator voter sponsor"`
	Description           *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	RequiresSubscription  *bool   `json:"requires_subscription,omitempty"`
	RequiresActionTrigger *bool   `json:"requires_action_trigger,omitempty"`
	ActionTrigger         *string `json:"action_trigger,omitempty" validate:"omitempty,max=100"`
	IsActive              *bool   `json:"is_active,omitempty"`
}

// ListRolesRequest carries the server-side filters plus the free-text
// search applied after the fetch.
type ListRolesRequest struct {
	Type     *RoleType     `json:"role_type,omitempty"`
	Category *RoleCategory `json:"role_category,omitempty"`
	IsActive *bool         `json:"is_active,omitempty"`
	Search   string        `json:"search,omitempty"`
}
