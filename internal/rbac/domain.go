package rbac

import "context"

// PermissionSource lists the permission names granted to a user through roles.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}
