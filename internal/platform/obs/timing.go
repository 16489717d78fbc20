// Package obs carries request-scoped identifiers and operation timing logs.
package obs

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "req_id"
	RunIDKey     ctxKey = "run_id"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// Fields returns the identifiers stored in ctx as log fields.
func Fields(ctx context.Context) log.Fields {
	f := log.Fields{}
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		f["req_id"] = id
	}
	if id, ok := ctx.Value(RunIDKey).(string); ok && id != "" {
		f["run_id"] = id
	}
	return f
}

// Time logs the duration of the operation name when the returned function
// runs, typically as `defer obs.Time(ctx, "op")(&err)`.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		entry := log.WithFields(Fields(ctx)).WithFields(log.Fields{
			"op":     name,
			"dur_ms": time.Since(start).Milliseconds(),
		})

		if errp != nil && *errp != nil {
			entry.WithError(*errp).Warn("[obs] operation failed")
			return
		}
		entry.Debug("[obs] operation finished")
	}
}
