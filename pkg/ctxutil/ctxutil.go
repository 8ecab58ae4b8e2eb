package ctxutil

import (
	"context"
)

type ctxKey string

const (
	userIDKey    ctxKey = "user_id"
	requestIDKey ctxKey = "request_id"
	timezoneKey  ctxKey = "timezone"
)

// WithUserID stores the authenticated user's identity subject in the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx extracts the user ID from the context.
// Returns an empty string and false if the value is missing or blank.
func UserIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTimezone stores the caller's IANA timezone name in the context.
func WithTimezone(ctx context.Context, tz string) context.Context {
	return context.WithValue(ctx, timezoneKey, tz)
}

// TimezoneFromCtx returns the caller's timezone name, or "" if none was sent.
func TimezoneFromCtx(ctx context.Context) string {
	tz, _ := ctx.Value(timezoneKey).(string)
	return tz
}
