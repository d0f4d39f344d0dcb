package permissions

type CreatePermissionRequest struct {
	Name        string `json:"permission_name" validate:"required,max=100"`
	Category    string `json:"permission_category" validate:"required"`
	Resource    string `json:"resource_type" validate:"required"`
	Action      string `json:"action_type" validate:"required"`
	Description string `json:"description" validate:"max=1000"`
}

type UpdatePermissionRequest struct {
	Name        *string `json:"permission_name,omitempty" validate:"omitempty,max=100"`
	Category    *string `json:"permission_category,omitempty"`
	Resource    *string `json:"resource_type,omitempty"`
	Action      *string `json:"action_type,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ListPermissionsRequest struct {
	Category *PermissionCategory `json:"permission_category,omitempty"`
	Resource *ResourceType       `json:"resource_type,omitempty"`
	Action   *ActionType         `json:"action_type,omitempty"`
	IsActive *bool               `json:"is_active,omitempty"`
	Search   string              `json:"search,omitempty"`
}
