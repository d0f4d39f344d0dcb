package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Header names used by the upstream gateway. The split between a bare numeric
// header and a serialized descriptor is inherited from the legacy callers;
// both are normalized into a single Identity at the boundary.
const (
	HeaderUserID      = "X-User-Id"
	HeaderUserContext = "X-User-Context"
)

// Identity describes the acting caller. It is always passed explicitly,
// never read from ambient state.
type Identity struct {
	UserID           int64    `json:"userId"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Username         string   `json:"username,omitempty"`
	Roles            []string `json:"roles,omitempty"`
	SubscriptionType string   `json:"subscriptionType,omitempty"`
	IsSubscribed     bool     `json:"isSubscribed,omitempty"`
}

// Anonymous reports whether the identity carries no caller.
func (id Identity) Anonymous() bool {
	return id.UserID == 0
}

// Actor returns a stable string form for audit fields such as assigned_by.
func (id Identity) Actor() string {
	if id.Username != "" {
		return id.Username
	}
	if id.UserID != 0 {
		return strconv.FormatInt(id.UserID, 10)
	}
	return ""
}

// IdentityFromRequest parses the caller identity from request headers.
// The descriptor header wins when both are present and consistent.
func IdentityFromRequest(r *http.Request) (Identity, error) {
	var id Identity
	if raw := strings.TrimSpace(r.Header.Get(HeaderUserContext)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &id); err != nil {
			return Identity{}, fmt.Errorf("%w: malformed %s header", ErrValidation, HeaderUserContext)
		}
	}
	if raw := strings.TrimSpace(r.Header.Get(HeaderUserID)); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: malformed %s header", ErrValidation, HeaderUserID)
		}
		if id.UserID == 0 {
			id.UserID = parsed
		}
	}
	return id, nil
}

// ApplyHeaders stamps the identity onto an outgoing request.
func (id Identity) ApplyHeaders(h http.Header) {
	if id.UserID != 0 {
		h.Set(HeaderUserID, strconv.FormatInt(id.UserID, 10))
	}
	if raw, err := json.Marshal(id); err == nil {
		h.Set(HeaderUserContext, string(raw))
	}
}
