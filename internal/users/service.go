package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (User, error)
	ListActive(ctx context.Context) ([]User, error)
	SetLanguage(ctx context.Context, id int64, language string) error
	CompanyOf(ctx context.Context, email string) (string, error)
}

// Service handles user lookups shared by the POS endpoints.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RequireAuthenticated rejects guest actors.
func RequireAuthenticated(actor shared.ActorContext) error {
	if actor.IsGuest() {
		return fmt.Errorf("%w: authentication required", httpx.ErrUnauthorized)
	}
	return nil
}

// RequireEnabled returns the actor's user record, rejecting guests and disabled accounts.
func (s *Service) RequireEnabled(ctx context.Context, actor shared.ActorContext) (User, error) {
	if err := RequireAuthenticated(actor); err != nil {
		return User{}, err
	}
	user, err := s.repo.Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return User{}, fmt.Errorf("%w: user is disabled", httpx.ErrUnauthorized)
		}
		return User{}, err
	}
	if !user.IsActive {
		return User{}, fmt.Errorf("%w: user is disabled", httpx.ErrUnauthorized)
	}
	return user, nil
}

// Language returns the stored preference of the actor, empty when unset or unknown.
func (s *Service) Language(ctx context.Context, actor shared.ActorContext) (string, error) {
	user, err := s.repo.Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(user.Language), nil
}

// SetLanguage stores the preference of the actor.
func (s *Service) SetLanguage(ctx context.Context, actor shared.ActorContext, language string) error {
	return s.repo.SetLanguage(ctx, actor.UserID, language)
}

// CompanyOf resolves the company a user is restricted to.
func (s *Service) CompanyOf(ctx context.Context, actor shared.ActorContext) (string, error) {
	company, err := s.repo.CompanyOf(ctx, actor.Email)
	if err != nil {
		return "", err
	}
	if company == "" {
		return "", fmt.Errorf("%w: user must have a company assigned", httpx.ErrValidation)
	}
	return company, nil
}

// ListActive returns enabled users.
func (s *Service) ListActive(ctx context.Context) ([]User, error) {
	return s.repo.ListActive(ctx)
}
