package stream

import (
	"context"
	"errors"
	"math"
)

type (
	// Publisher is a lazily subscribed sequence of values
	Publisher[T any] interface {
		Subscribe(ctx context.Context, s Subscriber[T])
	}

	// Subscriber receives the signals of a single subscription, in order:
	// OnSubscribe first, then zero or more OnNext, then at most one of
	// OnError or OnComplete
	Subscriber[T any] interface {
		OnSubscribe(Subscription)
		OnNext(T)
		OnError(error)
		OnComplete()
	}

	// Subscription links a Subscriber to its Publisher
	Subscription interface {
		Request(n int64)
		Cancel()
	}

	// PublisherFunc adapts a function into a Publisher
	PublisherFunc[T any] func(ctx context.Context, s Subscriber[T])

	emptySubscription struct{}
)

// Unbounded is the demand that disables backpressure
const Unbounded int64 = math.MaxInt64

var (
	ErrInvalidRequest = errors.New("request amount must be positive")
	ErrOverflow       = errors.New(
		"could not emit value due to lack of requests",
	)
)

// Subscribe calls f(ctx, s)
func (f PublisherFunc[T]) Subscribe(ctx context.Context, s Subscriber[T]) {
	f(ctx, s)
}

func (emptySubscription) Request(int64) {}
func (emptySubscription) Cancel()       {}

// AddDemand adds n to an outstanding demand, saturating at Unbounded
func AddDemand(current, n int64) int64 {
	if current == Unbounded || n >= Unbounded-current {
		return Unbounded
	}
	return current + n
}
