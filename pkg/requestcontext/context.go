// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and handlers read them. Keeping the
// package free of net/http lets services depend on it without pulling in
// transport code, and lets tests inject values directly.
package requestcontext

import (
	"context"
	"time"

	"campuspulse/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	participantIDKey struct{}
	roleKey          struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyParticipantID = participantIDKey{}
	ContextKeyRole          = roleKey{}
	ContextKeyRequestID     = requestIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// ParticipantID retrieves the authenticated participant ID from the context.
// Returns the zero value (nil UUID) if not set.
func ParticipantID(ctx context.Context) domain.ParticipantID {
	if id, ok := ctx.Value(ContextKeyParticipantID).(domain.ParticipantID); ok {
		return id
	}
	return domain.ParticipantID{}
}

// WithParticipantID injects a participant ID into the context.
func WithParticipantID(ctx context.Context, id domain.ParticipantID) context.Context {
	return context.WithValue(ctx, ContextKeyParticipantID, id)
}

// Role retrieves the authenticated principal's role from the context.
// Returns the empty role if not set.
func Role(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(ContextKeyRole).(domain.Role); ok {
		return role
	}
	return ""
}

// WithRole injects a role into the context.
func WithRole(ctx context.Context, role domain.Role) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
