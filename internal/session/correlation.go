package session

import (
	"context"
	"strings"
)

// CorrelationHeader carries the correlation id between the client, this
// service and the upstream API.
const CorrelationHeader = "X-Correlation-ID"

const maxCorrelationLen = 128

type correlationKey struct{}

// WithCorrelation stores id on ctx. Blank ids leave ctx unchanged and long
// ids are truncated.
func WithCorrelation(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = CleanCorrelation(id)
	if id == "" || CorrelationFromContext(ctx) == id {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationFromContext returns the id stored by WithCorrelation.
func CorrelationFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// CleanCorrelation trims a caller-supplied id and caps its length.
func CleanCorrelation(raw string) string {
	id := strings.TrimSpace(raw)
	if len(id) > maxCorrelationLen {
		id = id[:maxCorrelationLen]
	}
	return id
}
