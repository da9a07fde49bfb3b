package locale

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Handler exposes language preference endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers locale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.getLanguage)
	r.Put("/", h.changeLanguage)
}

type changeLanguageRequest struct {
	Locale string `json:"locale"`
}

func (h *Handler) getLanguage(w http.ResponseWriter, r *http.Request) {
	pref, err := h.service.GetUserLanguage(r.Context(), shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("get user language", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pref)
}

func (h *Handler) changeLanguage(w http.ResponseWriter, r *http.Request) {
	var req changeLanguageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.ChangeUserLanguage(r.Context(), shared.ActorFromContext(r.Context()), req.Locale)
	if err != nil {
		h.logger.Warn("change user language", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
