package assignments

import "time"

type AssignRequest struct {
	UserID    int64          `json:"user_id" validate:"required,gt=0"`
	RoleName  string         `json:"role_name" validate:"required,max=100"`
	Type      string         `json:"assignment_type" validate:"required,oneof=manual automatic subscription action_triggered"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Source    string         `json:"assignment_source,omitempty" validate:"omitempty,max=100"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type DeactivateRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	RoleName string `json:"role_name" validate:"required,max=100"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

type DeleteRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	RoleName string `json:"role_name" validate:"required,max=100"`
}

// ListFilters narrows the flat assignment listing.
type ListFilters struct {
	UserID   *int64
	RoleID   *int64
	IsActive *bool
	Type     *AssignmentType
}

// HistoryFilters narrows a user's history query.
type HistoryFilters struct {
	IsActive *bool
	Limit    int
}
