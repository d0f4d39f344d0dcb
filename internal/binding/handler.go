package binding

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ballotworks/roleboard/internal/platform/httpx"
)

// Handler serves the role-permission binding endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the binding mutation routes under /role-permissions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/assign", h.assign)
	r.Post("/remove", h.remove)
}

type pairRequest struct {
	RoleID       int64 `json:"roleId"`
	PermissionID int64 `json:"permissionId"`
}

// ListForRole serves GET /roles/{roleID}/permissions.
func (h *Handler) ListForRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid role id")
		return
	}
	list, err := h.service.ListForRole(r.Context(), roleID)
	if err != nil {
		h.logger.Error("list role permissions", slog.Int64("role_id", roleID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// ListForUser serves GET /users/{userID}/permissions.
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid user id")
		return
	}
	list, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list user permissions", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.service.Assign(r.Context(), req.RoleID, req.PermissionID); err != nil {
		h.logger.Error("assign permission", slog.Int64("role_id", req.RoleID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assigned": true})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.service.Remove(r.Context(), req.RoleID, req.PermissionID); err != nil {
		h.logger.Error("remove permission", slog.Int64("role_id", req.RoleID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"removed": true})
}
