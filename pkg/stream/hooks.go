package stream

import (
	"context"
	"log/slog"

	"github.com/kode4food/streamtest/pkg/log"
)

type (
	// Hooks observe signals that an operator could not deliver
	Hooks struct {
		// OnNextDropped receives values that arrived after termination
		OnNextDropped func(any)

		// OnErrorDropped receives errors that arrived after termination
		OnErrorDropped func(error)

		// OnDiscard receives values an operator threw away on purpose
		OnDiscard func(any)
	}

	hooksKey struct{}
)

// WithHooks returns a context whose operators report to h
func WithHooks(ctx context.Context, h *Hooks) context.Context {
	return context.WithValue(ctx, hooksKey{}, h)
}

// HooksFrom returns the hooks carried by ctx, if any
func HooksFrom(ctx context.Context) (*Hooks, bool) {
	h, ok := ctx.Value(hooksKey{}).(*Hooks)
	return h, ok && h != nil
}

// Dropped reports a value that arrived after its sequence terminated
func Dropped[T any](ctx context.Context, v T) {
	if h, ok := HooksFrom(ctx); ok && h.OnNextDropped != nil {
		h.OnNextDropped(v)
		return
	}
	slog.Debug("Value dropped after termination", log.Value(v))
}

// ErrorDropped reports an error that arrived after its sequence terminated
func ErrorDropped(ctx context.Context, err error) {
	if h, ok := HooksFrom(ctx); ok && h.OnErrorDropped != nil {
		h.OnErrorDropped(err)
		return
	}
	slog.Debug("Error dropped after termination", log.Error(err))
}

// Discarded reports a value that an operator intentionally did not emit
func Discarded[T any](ctx context.Context, v T) {
	if h, ok := HooksFrom(ctx); ok && h.OnDiscard != nil {
		h.OnDiscard(v)
		return
	}
	slog.Debug("Value discarded", log.Value(v))
}
