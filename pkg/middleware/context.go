package middleware

import "context"

type contextKey string

const ContextUserID contextKey = "userID"

func GetUserID(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextUserID).(string)
	return val, ok
}
