package users

// User is the minimal profile surfaced by the assignment UI's user picker.
type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}
