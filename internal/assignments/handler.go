package assignments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ballotworks/roleboard/internal/platform/httpx"
	"github.com/ballotworks/roleboard/internal/shared"
)

// Handler serves the assignment engine endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers assignment routes under /assignments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.assign)
	r.Post("/deactivate", h.deactivate)
	r.Delete("/", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filters ListFilters
	q := r.URL.Query()
	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filters.UserID = &id
	}
	if raw := q.Get("role_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid role_id")
			return
		}
		filters.RoleID = &id
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}
	if raw := q.Get("assignment_type"); raw != "" {
		assignmentType, err := ParseType(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filters.Type = &assignmentType
	}
	if q.Get("grouped") == "true" {
		groups, stats, err := h.service.ListGrouped(r.Context(), filters)
		if err != nil {
			h.logger.Error("list grouped assignments", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"groups": groups, "stats": stats})
		return
	}
	list, stats, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list assignments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": list, "stats": stats})
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	created, err := h.service.Assign(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("assign role",
			slog.Int64("user_id", req.UserID),
			slog.String("role_name", req.RoleName),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	var req DeactivateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	updated, err := h.service.Deactivate(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("deactivate assignment",
			slog.Int64("user_id", req.UserID),
			slog.String("role_name", req.RoleName),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	result, err := h.service.Delete(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("delete assignment",
			slog.Int64("user_id", req.UserID),
			slog.String("role_name", req.RoleName),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// UserRoles serves GET /users/{userID}/roles.
func (h *Handler) UserRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid user id")
		return
	}
	list, err := h.service.RolesForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list user roles", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// UserHistory serves GET /users/{userID}/assignment-history.
func (h *Handler) UserHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var filters HistoryFilters
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.Fail(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filters.Limit = limit
	}
	entries, err := h.service.History(r.Context(), userID, filters)
	if err != nil {
		h.logger.Error("assignment history", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
