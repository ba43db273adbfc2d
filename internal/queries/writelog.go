package queries

import (
	"context"
	"sync/atomic"
)

type writeLogKey struct{}

type writeLog struct{ sent atomic.Int64 }

// WithWriteLog returns a context that counts the writes sent to the actor
// through any Client using it.
func WithWriteLog(ctx context.Context) context.Context {
	return context.WithValue(ctx, writeLogKey{}, &writeLog{})
}

// WritesSent is the number of writes sent so far under ctx. ok is false when
// ctx carries no write log.
func WritesSent(ctx context.Context) (n int64, ok bool) {
	l, ok := ctx.Value(writeLogKey{}).(*writeLog)
	if !ok {
		return 0, false
	}
	return l.sent.Load(), true
}

func noteWrite(ctx context.Context) {
	if l, ok := ctx.Value(writeLogKey{}).(*writeLog); ok {
		l.sent.Add(1)
	}
}
