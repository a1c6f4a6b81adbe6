// Package net holds request scoped values shared by transports and middleware
package net

import (
	"context"

	"issuebridge/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyActor ctxKey = "actor"

// WithRequest stores reqID where chi and the logger both find it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	return logger.WithRequest(ctx, reqID)
}

// WithActor records who is calling, e.g. "admin" after token auth
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, keyActor, actor)
}

// RequestID returns the request id on ctx, if any
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// Actor returns the authenticated caller, if any
func Actor(ctx context.Context) string {
	s, _ := ctx.Value(keyActor).(string)
	return s
}
