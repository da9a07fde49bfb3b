package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
)

// EnabledChecker verifies that an actor is a logged in, enabled user.
type EnabledChecker interface {
	RequireEnabled(ctx context.Context, actor shared.ActorContext) (users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	users EnabledChecker
	csrf  *shared.CSRFManager
}

// NewService constructs a new Service.
func NewService(repo Repository, checker EnabledChecker, csrf *shared.CSRFManager) *Service {
	return &Service{repo: repo, users: checker, csrf: csrf}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// CSRFToken issues the CSRF token of an authenticated, enabled actor with a stored session.
func (s *Service) CSRFToken(ctx context.Context, actor shared.ActorContext, sess *shared.Session) (CSRFToken, error) {
	if _, err := s.users.RequireEnabled(ctx, actor); err != nil {
		return CSRFToken{}, err
	}
	if actor.SessionID == "" || sess == nil || sess.ID != actor.SessionID {
		return CSRFToken{}, fmt.Errorf("%w: invalid session", httpx.ErrUnauthorized)
	}
	token, err := s.csrf.EnsureToken(ctx, sess)
	if err != nil || token == "" {
		return CSRFToken{}, fmt.Errorf("%w: failed to generate CSRF token", httpx.ErrValidation)
	}
	return CSRFToken{Token: token, SessionID: sess.ID}, nil
}
