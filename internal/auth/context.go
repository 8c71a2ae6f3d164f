package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// UserContext is the caller identity resolved by the upstream gateway.
// This service trusts it and performs no permission checks of its own.
type UserContext struct {
	MerchantID string
	UserID     string
	Role       string
}

type contextKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the caller stored by WithUser, falling back to
// incoming gRPC metadata.
func FromContext(ctx context.Context) UserContext {
	if u, ok := ctx.Value(contextKey{}).(UserContext); ok {
		return u
	}

	var u UserContext
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		u.MerchantID = first(md.Get("x-merchant-id"))
		u.UserID = first(md.Get("x-user-id"))
		u.Role = first(md.Get("x-user-role"))
	}
	return u
}

func GetMerchantID(ctx context.Context) string {
	return FromContext(ctx).MerchantID
}

// GetUserID returns nil for anonymous or system callers.
func GetUserID(ctx context.Context) *string {
	id := FromContext(ctx).UserID
	if id == "" || id == "unknown" {
		return nil
	}
	return &id
}

func first(vals []string) string {
	if len(vals) > 0 {
		return vals[0]
	}
	return ""
}
