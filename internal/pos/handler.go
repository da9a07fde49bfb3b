package pos

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Handler exposes the POS profile endpoints as JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers POS routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales-persons", h.listSalesPersons)
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.listProfiles)
		r.Get("/options", h.createOptions)
		r.With(h.rbac.RequireAny(shared.PermPOSProfilesCreate)).Post("/", h.createProfile)
		r.Route("/{profile}", func(r chi.Router) {
			r.Get("/", h.profileData)
			r.Patch("/", h.updateProfile)
			r.Delete("/", h.deleteProfile)
			r.Get("/settings", h.settings)
			r.Get("/payment-methods", h.paymentMethods)
			r.Get("/taxes", h.taxes)
			r.Get("/warehouses", h.warehouses)
			r.Put("/warehouse", h.updateWarehouse)
			r.Get("/default-customer", h.defaultCustomer)
		})
	})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

// masked logs err and answers with fallback unless err is an access failure.
func (h *Handler) masked(w http.ResponseWriter, op string, err error, fallback any) {
	if isCallerError(err) {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.JSON(w, http.StatusOK, fallback)
}

func isCallerError(err error) bool {
	return errors.Is(err, httpx.ErrUnauthorized) || errors.Is(err, httpx.ErrForbidden) || errors.Is(err, httpx.ErrValidation)
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProfiles(r.Context(), shared.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, "list pos profiles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.CreateOptions(r.Context(), shared.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, "pos profile options", err)
		return
	}
	httpx.JSON(w, http.StatusOK, opts)
}

func (h *Handler) profileData(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ProfileData(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile"))
	if err != nil {
		h.fail(w, "get pos profile data", err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	p, err := h.service.CreateProfile(r.Context(), shared.ActorFromContext(r.Context()), fields)
	if err != nil {
		h.fail(w, "create pos profile", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	p, err := h.service.UpdateProfile(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile"), fields)
	if err != nil {
		h.fail(w, "update pos profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProfile(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile")); err != nil {
		h.fail(w, "delete pos profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile"))
	if err != nil {
		h.masked(w, "get pos settings", err, struct{}{})
		return
	}
	if settings == nil {
		httpx.JSON(w, http.StatusOK, struct{}{})
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) paymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.PaymentMethods(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile"))
	if err != nil {
		if isCallerError(err) {
			httpx.RespondError(w, err)
			return
		}
		h.logger.Error("get payment methods", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "error fetching payment methods: "+shared.UserSafeMessage(err))
		return
	}
	httpx.JSON(w, http.StatusOK, methods)
}

func (h *Handler) taxes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Taxes(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile"))
	if err != nil {
		h.masked(w, "get taxes", err, []TaxRow{})
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) warehouses(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Warehouses(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile"))
	if err != nil {
		h.masked(w, "get warehouses", err, []WarehouseOption{})
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) defaultCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.DefaultCustomer(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile"))
	if err != nil {
		h.masked(w, "get default customer", err, DefaultCustomer{})
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) listSalesPersons(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.SalesPersons(r.Context(), shared.ActorFromContext(r.Context()), r.URL.Query().Get("pos_profile"))
	if err != nil {
		h.masked(w, "get sales persons", err, []SalesPerson{})
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

type updateWarehouseRequest struct {
	Warehouse string `json:"warehouse"`
}

func (h *Handler) updateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req updateWarehouseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.UpdateWarehouse(r.Context(), shared.ActorFromContext(r.Context()), chi.URLParam(r, "profile"), req.Warehouse)
	if err != nil {
		h.fail(w, "update warehouse", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
