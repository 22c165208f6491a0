package auth

import "context"

// ctxKey is the unexported key used to store the authenticated user id.
type ctxKey struct{}

// WithUserID stores the authenticated user id in ctx.
// Called by the auth middleware after token validation.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromCtx extracts the authenticated user id from ctx.
// Returns 0 when the request is unauthenticated.
func UserIDFromCtx(ctx context.Context) uint {
	if id, ok := ctx.Value(ctxKey{}).(uint); ok {
		return id
	}
	return 0
}
