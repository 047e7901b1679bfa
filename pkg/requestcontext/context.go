// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them; services read them without
// importing net/http. Tests inject values directly.
package requestcontext

import (
	"context"
	"time"
)

type (
	actorIDKey     struct{}
	actorRoleKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyActorRole   = actorRoleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorID retrieves the authenticated operator's subject from the context.
func ActorID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyActorID).(string); ok {
		return v
	}
	return ""
}

// WithActorID injects the acting operator's subject into the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actorID)
}

// ActorRole retrieves the acting operator's role from the context.
func ActorRole(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyActorRole).(string); ok {
		return v
	}
	return ""
}

// WithActorRole injects the acting operator's role into the context.
func WithActorRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyActorRole, role)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context, falling back to
// time.Now for non-HTTP callers such as workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the observed time for a context. Tests and batch workers use
// it for deterministic timestamps.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
