package shared

import (
	"context"
	"strconv"
	"strings"
)

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ActorContext identifies who a request runs for. The zero value is a guest.
type ActorContext struct {
	UserID    int64
	Email     string
	SessionID string
}

// IsGuest reports whether no user is logged in.
func (a ActorContext) IsGuest() bool {
	return a.UserID <= 0 || a.Email == ""
}

// ActorFromContext derives the actor from the session stored in ctx.
func ActorFromContext(ctx context.Context) ActorContext {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return ActorContext{}
	}
	actor := ActorContext{Email: sess.Email()}
	if sess.Persisted() {
		actor.SessionID = sess.ID
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(sess.User()), 10, 64); err == nil {
		actor.UserID = id
	}
	return actor
}
