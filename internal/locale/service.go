package locale

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
)

// UserStore is the subset of the user service needed for language preferences.
type UserStore interface {
	RequireEnabled(ctx context.Context, actor shared.ActorContext) (users.User, error)
	Language(ctx context.Context, actor shared.ActorContext) (string, error)
	SetLanguage(ctx context.Context, actor shared.ActorContext, language string) error
}

// Preference is the response of the get language operation.
type Preference struct {
	Success bool `json:"success"`
	Locale  Code `json:"locale"`
}

// ChangeResult is the response of the change language operation.
type ChangeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Locale  Code   `json:"locale"`
}

// Service reads and writes user language preferences.
type Service struct {
	users    UserStore
	resolver *Resolver
	logger   *slog.Logger
}

// NewService constructs a Service. A nil resolver uses the built-in pt-MZ set.
func NewService(store UserStore, resolver *Resolver, logger *slog.Logger) *Service {
	if resolver == nil {
		resolver = standard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: store, resolver: resolver, logger: logger}
}

// GetUserLanguage returns the canonical locale stored for the actor.
func (s *Service) GetUserLanguage(ctx context.Context, actor shared.ActorContext) (Preference, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return Preference{}, err
	}
	stored, err := s.users.Language(ctx, actor)
	if err != nil {
		return Preference{}, err
	}
	return Preference{Success: true, Locale: s.resolver.Canonicalize(stored)}, nil
}

// ChangeUserLanguage validates and stores a new preference for the actor.
func (s *Service) ChangeUserLanguage(ctx context.Context, actor shared.ActorContext, requested string) (ChangeResult, error) {
	if _, err := s.users.RequireEnabled(ctx, actor); err != nil {
		return ChangeResult{}, err
	}
	if strings.TrimSpace(requested) == "" {
		return ChangeResult{}, fmt.Errorf("%w: locale parameter is required", httpx.ErrValidation)
	}
	code := s.resolver.Canonicalize(requested)
	if !s.resolver.Supported(code) {
		return ChangeResult{}, fmt.Errorf("%w: locale '%s' is not supported", httpx.ErrValidation, requested)
	}
	if err := s.users.SetLanguage(ctx, actor, string(code)); err != nil {
		s.logger.Error("change user language", slog.Int64("user_id", actor.UserID), slog.Any("error", err))
		return ChangeResult{}, fmt.Errorf("%w: failed to change language: %v", httpx.ErrValidation, err)
	}
	return ChangeResult{
		Success: true,
		Message: fmt.Sprintf("Language changed to %s", code),
		Locale:  code,
	}, nil
}
