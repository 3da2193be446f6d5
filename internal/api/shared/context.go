package shared

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey is the type of request context keys set by this package.
type ContextKey string

const (
	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of hex characters in a trace ID
	TraceIDLength = 32
)

// SetTraceID adds a fresh trace ID to the context and returns it with the new context.
func SetTraceID(ctx context.Context) (context.Context, string) {
	traceID := generateTraceID()
	return context.WithValue(ctx, TraceIDKey, traceID), traceID
}

// GetTraceID retrieves the trace ID from the context, or "" if none is set.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// generateTraceID returns a random UUID as 32 hex characters, falling back
// to a clock-derived ID if the random source fails.
func generateTraceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fallbackTraceID(time.Now())
	}
	return strings.ReplaceAll(id.String(), "-", "")
}

func fallbackTraceID(now time.Time) string {
	b := make([]byte, TraceIDLength/2)
	binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint64(b[8:], uint64(now.Unix())^uint64(now.Nanosecond()))
	return hex.EncodeToString(b)
}
