// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; sensors read them when they build event
// defaults. Keeping the package free of net/http lets sensor code import it
// without pulling in transport code.
//
// Usage in sensors (read values):
//
//	p, ok := requestcontext.Principal(ctx)
//	ip := requestcontext.ClientIP(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithPrincipal(ctx, requestcontext.PrincipalInfo{UserID: 7})
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	principalKey   struct{}
	siteIDKey      struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipal   = principalKey{}
	ContextKeySiteID      = siteIDKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// PrincipalInfo is the authenticated host user behind a request.
type PrincipalInfo struct {
	UserID int64
	Name   string
	Email  string
}

// -----------------------------------------------------------------------------
// Principal and site
// -----------------------------------------------------------------------------

// Principal retrieves the authenticated principal, if any.
func Principal(ctx context.Context) (PrincipalInfo, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(PrincipalInfo)
	return p, ok
}

// WithPrincipal injects the authenticated principal into the context.
func WithPrincipal(ctx context.Context, p PrincipalInfo) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// SiteID retrieves the host site the request belongs to. Returns 0 if not set.
func SiteID(ctx context.Context) int64 {
	if id, ok := ctx.Value(ContextKeySiteID).(int64); ok {
		return id
	}
	return 0
}

// WithSiteID injects the host site id.
func WithSiteID(ctx context.Context, siteID int64) context.Context {
	return context.WithValue(ctx, ContextKeySiteID, siteID)
}

// -----------------------------------------------------------------------------
// Client metadata
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for sensor tests that don't run the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request tracking
// -----------------------------------------------------------------------------

// RequestID retrieves the request correlation id.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
