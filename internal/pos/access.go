package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// AssignmentChecker reports whether a user is assigned to a profile.
type AssignmentChecker interface {
	IsAssigned(ctx context.Context, profile, email string) (bool, error)
}

// Gate decides whether an actor may read or change a profile.
type Gate struct {
	assignments AssignmentChecker
	permissions rbac.PermissionSource
}

// NewGate constructs a Gate. A nil permission source disables the write-permission path.
func NewGate(assignments AssignmentChecker, permissions rbac.PermissionSource) *Gate {
	return &Gate{assignments: assignments, permissions: permissions}
}

// HasAccess reports whether the actor has an assignment row for profile.
func (g *Gate) HasAccess(ctx context.Context, actor shared.ActorContext, profile string) (bool, error) {
	if actor.IsGuest() || strings.TrimSpace(profile) == "" {
		return false, nil
	}
	return g.assignments.IsAssigned(ctx, profile, actor.Email)
}

// CanMutate reports whether the actor is assigned to profile or holds the general edit permission.
func (g *Gate) CanMutate(ctx context.Context, actor shared.ActorContext, profile string) (bool, error) {
	ok, err := g.HasAccess(ctx, actor, profile)
	if err != nil || ok {
		return ok, err
	}
	if g.permissions == nil || actor.IsGuest() {
		return false, nil
	}
	return rbac.HasPermission(ctx, g.permissions, actor.UserID, shared.PermPOSProfilesEdit)
}

// RequireAccess returns a forbidden error unless HasAccess holds.
func (g *Gate) RequireAccess(ctx context.Context, actor shared.ActorContext, profile string) error {
	ok, err := g.HasAccess(ctx, actor, profile)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: you don't have access to this POS profile", httpx.ErrForbidden)
	}
	return nil
}

// RequireMutate returns a forbidden error unless CanMutate holds.
func (g *Gate) RequireMutate(ctx context.Context, actor shared.ActorContext, profile string) error {
	ok, err := g.CanMutate(ctx, actor, profile)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: you don't have permission to modify this POS profile", httpx.ErrForbidden)
	}
	return nil
}
