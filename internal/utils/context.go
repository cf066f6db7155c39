package utils

import "context"

// GetString reads a string value set by the auth middleware.
func GetString(ctx context.Context, key any) (string, bool) {
	s, ok := ctx.Value(key).(string)
	return s, ok && s != ""
}
