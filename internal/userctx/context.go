package userctx

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// WithUserID stores the authenticated subject (the JWT "sub" claim).
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// UserUUID returns the subject parsed as a user id. ok is false for anonymous
// requests; err is set when a subject is present but malformed.
func UserUUID(ctx context.Context) (id uuid.UUID, ok bool, err error) {
	raw, ok := GetUserID(ctx)
	if !ok {
		return uuid.Nil, false, nil
	}
	id, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, true, err
	}
	return id, true, nil
}
