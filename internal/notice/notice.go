// Package notice collects user-facing notifications raised while serving a request.
// Services push messages through the request context; handlers render them next to
// the response data.
package notice

import (
	"context"
	"sync"
)

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type collector struct {
	mu    sync.Mutex
	items []Notice
}

type ctxKey struct{}

// WithCollector returns a context that records notices.
func WithCollector(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &collector{})
}

func push(ctx context.Context, level Level, msg string) {
	c, ok := ctx.Value(ctxKey{}).(*collector)
	if !ok {
		return
	}
	c.mu.Lock()
	c.items = append(c.items, Notice{Level: level, Message: msg})
	c.mu.Unlock()
}

func Error(ctx context.Context, msg string)   { push(ctx, LevelError, msg) }
func Warning(ctx context.Context, msg string) { push(ctx, LevelWarning, msg) }
func Success(ctx context.Context, msg string) { push(ctx, LevelSuccess, msg) }

// List returns a copy of the notices recorded so far.
func List(ctx context.Context) []Notice {
	c, ok := ctx.Value(ctxKey{}).(*collector)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.items))
	copy(out, c.items)
	return out
}
