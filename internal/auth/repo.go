package auth

import (
	"context"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/users"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

var _ Repository = (*users.Repository)(nil)
