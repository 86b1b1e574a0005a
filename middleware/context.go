package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/upb/library-api/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
)

// Claims represents the authenticated principal extracted from the token
type Claims struct {
	Sub      string `json:"sub"` // User ID
	Username string `json:"username"`
	Role     string `json:"role"`
	Iss      string `json:"iss"` // Issuer
	Exp      int64  `json:"exp"` // Expiration
	Iat      int64  `json:"iat"` // Issued at
}

// GetRequestIDFromContext retrieves the request ID from context, falling
// back to the ID assigned by chi's RequestID middleware.
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserIDFromContext returns the authenticated user's ID
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims := GetClaimsFromContext(ctx)
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.Sub)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// UserLookup finds stored users by id
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ContextActorResolver resolves the audit actor from the authenticated
// request context. Requests without claims are anonymous. When Users is set,
// a subject that no longer names a stored user is anonymous too; tokens
// outlive account deletion.
type ContextActorResolver struct {
	Users UserLookup
}

// ResolveActor implements audit.ActorResolver. Lookups run on ctx, which
// inside a commit carries the transaction.
func (r ContextActorResolver) ResolveActor(ctx context.Context) (uuid.UUID, bool) {
	id, ok := GetUserIDFromContext(ctx)
	if !ok || r.Users == nil {
		return id, ok
	}
	if _, err := r.Users.GetByID(ctx, id); err != nil {
		return uuid.Nil, false
	}
	return id, true
}
