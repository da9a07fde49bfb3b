package auth_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-pos/internal/auth"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
	_ "github.com/odyssey-erp/odyssey-pos/testing"
)

type stubRepo struct {
	user     *users.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (users.User, error) {
	if s.user == nil || s.user.Email != email {
		return users.User{}, fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	return *s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) RequireEnabled(ctx context.Context, actor shared.ActorContext) (users.User, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return users.User{}, err
	}
	if s.user == nil || s.user.ID != actor.UserID || !s.user.IsActive {
		return users.User{}, fmt.Errorf("%w: user is disabled", httpx.ErrUnauthorized)
	}
	return *s.user, nil
}

type harness struct {
	router   http.Handler
	sessions *shared.SessionManager
	repo     *stubRepo
}

func newHarness(t *testing.T, user *users.User) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	repo := &stubRepo{user: user, sessions: map[string]int64{}}
	handler := auth.NewHandler(nil, auth.NewService(repo, repo, csrfManager), sessionManager)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, req.WithContext(ctx))
			require.NoError(t, sessionManager.Commit(ctx, w, req, sess))
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	r.Route("/api/session", handler.MountRoutes)
	return &harness{router: r, sessions: sessionManager, repo: repo}
}

func activeUser(t *testing.T) *users.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &users.User{ID: 1, Email: "cashier@example.com", Name: "Caixa 1", PasswordHash: string(hashed), IsActive: true}
}

func (h *harness) do(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	return res
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t, activeUser(t))

	res := h.do(http.MethodPost, "/api/session/login", `{"email":"cashier@example.com","password":"wrongpass"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "invalid email or password")
	assert.Empty(t, h.repo.sessions)
}

func TestLoginValidation(t *testing.T) {
	h := newHarness(t, activeUser(t))

	res := h.do(http.MethodPost, "/api/session/login", `{"email":"not-an-email","password":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCSRFTokenRequiresLogin(t *testing.T) {
	h := newHarness(t, activeUser(t))

	res := h.do(http.MethodGet, "/api/session/csrf-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginThenCSRFToken(t *testing.T) {
	h := newHarness(t, activeUser(t))

	login := h.do(http.MethodPost, "/api/session/login", `{"email":"cashier@example.com","password":"correctpass"}`, nil)
	require.Equal(t, http.StatusOK, login.Code, login.Body.String())
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Len(t, h.repo.sessions, 1)

	res := h.do(http.MethodGet, "/api/session/csrf-token", "", cookies)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var token auth.CSRFToken
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &token))
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, cookies[0].Value, token.SessionID)

	// Same session yields the same token.
	again := h.do(http.MethodGet, "/api/session/csrf-token", "", cookies)
	var second auth.CSRFToken
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &second))
	assert.Equal(t, token.Token, second.Token)
}

func TestCSRFTokenRejectsDisabledUser(t *testing.T) {
	user := activeUser(t)
	h := newHarness(t, user)

	login := h.do(http.MethodPost, "/api/session/login", `{"email":"cashier@example.com","password":"correctpass"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	user.IsActive = false

	res := h.do(http.MethodGet, "/api/session/csrf-token", "", login.Result().Cookies())
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "disabled")
}
