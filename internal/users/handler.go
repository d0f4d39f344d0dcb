package users

import (
	"log/slog"
	"net/http"

	"github.com/ballotworks/roleboard/internal/platform/httpx"
)

// Handler serves user lookup endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Search serves GET /users/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("search users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}
