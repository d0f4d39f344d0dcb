package permissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ballotworks/roleboard/internal/platform/httpx"
)

// Handler serves the permission catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers permission catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{permissionID}", h.update)
	r.Delete("/{permissionID}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListPermissionsRequest{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("permission_category"); raw != "" {
		category, err := ParseCategory(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.Category = &category
	}
	if raw := r.URL.Query().Get("resource_type"); raw != "" {
		resource, err := ParseResource(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.Resource = &resource
	}
	if raw := r.URL.Query().Get("action_type"); raw != "" {
		action, err := ParseAction(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.Action = &action
	}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active := raw == "true"
		req.IsActive = &active
	}
	list, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	perm, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create permission", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, perm)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "permissionID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid permission id")
		return
	}
	var req UpdatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	perm, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update permission", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "permissionID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid permission id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete permission", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}
