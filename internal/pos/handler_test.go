package pos

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type handlerHarness struct {
	*fixture
	router   chi.Router
	sessions *shared.SessionManager
}

func newHandlerHarness(t *testing.T) *handlerHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t)
	perms := staticPermissions{
		manager.UserID: {shared.PermPOSProfilesCreate, shared.PermPOSProfilesEdit},
	}
	h := NewHandler(nil, f.service, rbac.Middleware{Service: perms})
	router := chi.NewRouter()
	router.Route("/api/pos", h.MountRoutes)
	return &handlerHarness{
		fixture:  f,
		router:   router,
		sessions: shared.NewSessionManager(client, "odyssey_session", "secret", time.Hour, false),
	}
}

func (h *handlerHarness) do(t *testing.T, actor shared.ActorContext, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	sess, err := h.sessions.Load(req.Context(), req)
	require.NoError(t, err)
	if !actor.IsGuest() {
		sess.SetUser(strconv.FormatInt(actor.UserID, 10), actor.Email)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRequiresLogin(t *testing.T) {
	h := newHandlerHarness(t)
	rec := h.do(t, shared.ActorContext{}, http.MethodGet, "/api/pos/profiles", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandlerListAndRead(t *testing.T) {
	h := newHandlerHarness(t)

	rec := h.do(t, cashier, http.MethodGet, "/api/pos/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ProfileSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = h.do(t, cashier, http.MethodGet, "/api/pos/profiles/Main%20Store", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Contains(t, data, "pos_profile")
	assert.Contains(t, data, "print_settings")

	rec = h.do(t, manager, http.MethodGet, "/api/pos/profiles/Main%20Store", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerSettings(t *testing.T) {
	h := newHandlerHarness(t)
	rec := h.do(t, cashier, http.MethodGet, "/api/pos/profiles/Main%20Store/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"tax_inclusive": 0,
		"allow_user_to_edit_additional_discount": 0,
		"allow_user_to_edit_item_discount": 1,
		"use_percentage_discount": 0,
		"max_discount_allowed": 0,
		"disable_rounded_total": 1,
		"allow_credit_sale": 0,
		"allow_return": 0,
		"allow_write_off_change": 0,
		"allow_partial_payment": 0,
		"decimal_precision": "2",
		"allow_negative_stock": 0,
		"enable_sales_persons": "Disabled"
	}`, rec.Body.String())
}

func TestHandlerMasksEnrichmentFailures(t *testing.T) {
	h := newHandlerHarness(t)
	h.store.readErr = assert.AnError

	cases := map[string]string{
		"/api/pos/profiles/Main%20Store/settings":         `{}`,
		"/api/pos/profiles/Main%20Store/taxes":            `[]`,
		"/api/pos/profiles/Main%20Store/warehouses":       `[]`,
		"/api/pos/profiles/Main%20Store/default-customer": `{"customer":null}`,
		"/api/pos/sales-persons?pos_profile=Main%20Store": `[]`,
	}
	for path, want := range cases {
		rec := h.do(t, cashier, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, want, rec.Body.String(), path)
	}

	rec := h.do(t, cashier, http.MethodGet, "/api/pos/profiles/Main%20Store/payment-methods", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error fetching payment methods: an unexpected error occurred")
}

func TestHandlerCreateRequiresPermission(t *testing.T) {
	h := newHandlerHarness(t)
	rec := h.do(t, cashier, http.MethodPost, "/api/pos/profiles", createBody)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, manager, http.MethodPost, "/api/pos/profiles", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Kiosk", p.Name)

	rec = h.do(t, manager, http.MethodPost, "/api/pos/profiles", createBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, manager, http.MethodPost, "/api/pos/profiles", `{"name":"X","payments":"[bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not parse 'payments' as JSON")
}

func TestHandlerUpdateWarehouseAndDelete(t *testing.T) {
	h := newHandlerHarness(t)

	rec := h.do(t, cashier, http.MethodPut, "/api/pos/profiles/Main%20Store/warehouse", `{"warehouse":"Stores - OTH"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, cashier, http.MethodPut, "/api/pos/profiles/Main%20Store/warehouse", `{"warehouse":"Shop - AC"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Warehouse updated successfully","warehouse":"Shop - AC"}`, rec.Body.String())

	rec = h.do(t, outsider, http.MethodDelete, "/api/pos/profiles/Main%20Store", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, cashier, http.MethodDelete, "/api/pos/profiles/Main%20Store", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
