package middleware

import (
	"context"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxUserType contextKey = "user_type"
	ctxEmail    contextKey = "email"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func UserTypeFromContext(ctx context.Context) enums.UserType {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserType).(enums.UserType); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithUserType injects the account type into the context for downstream handlers.
func WithUserType(ctx context.Context, userType enums.UserType) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserType, userType)
}
