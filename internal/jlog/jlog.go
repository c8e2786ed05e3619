// Package jlog implements the per-jurisdiction log context described in
// spec §5: rather than a thread-local binding, every call explicitly carries
// its logger through context.Context (spec §9, design note vii, "Option (a)
// is preferred").
package jlog

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// With returns a child context carrying logger, to be read back by From.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the logger bound to ctx, or slog.Default() if none was bound.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// Scope binds jurisdiction as a structured attribute on the context's
// logger, returning a context whose From() calls include it on every
// record — this is the "filter... tags records with the active identifier"
// behavior from spec §5, expressed as explicit context threading instead of
// a process-wide filter.
func Scope(ctx context.Context, jurisdiction string) context.Context {
	return With(ctx, From(ctx).With("jurisdiction", jurisdiction))
}
