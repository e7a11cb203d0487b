package domain

import "context"

type CtxKey string

// Request metadata placed on the request context by middleware and read by
// usecases for security logging.
const (
	KeyRequestID CtxKey = "RequestID"
	KeyClientIP  CtxKey = "ClientIP"
	KeyUserAgent CtxKey = "UserAgent"
)

func StringFromContext(ctx context.Context, key CtxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
