package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ballotworks/roleboard/internal/platform/httpx"
)

// Handler serves the role catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers role catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{roleID}", h.update)
	r.Delete("/{roleID}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListRolesRequest{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("role_type"); raw != "" {
		roleType, err := ParseType(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.Type = &roleType
	}
	if raw := r.URL.Query().Get("role_category"); raw != "" {
		category, err := ParseCategory(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.Category = &category
	}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active := raw == "true"
		req.IsActive = &active
	}
	list, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	role, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid role id")
		return
	}
	var req UpdateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	role, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update role", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid role id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete role", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}
