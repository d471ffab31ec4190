package session

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

type userIDKey struct{}

// WithUserID stores the signed-in user ID in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the signed-in user ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// LogExtractor adds user_id to log records.
func LogExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := UserIDFromContext(ctx); ok {
			return logger.UserID(id), true
		}
		return slog.Attr{}, false
	}
}
