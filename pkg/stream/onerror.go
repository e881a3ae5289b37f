package stream

import (
	"context"
	"fmt"
)

type errorReturnSubscriber[T any] struct {
	relay
	down      Subscriber[T]
	fallback  T
	requested int64
	pending   bool
}

// OnErrorReturn replaces an upstream error with a single fallback value
// followed by completion. The fallback waits for downstream demand
func OnErrorReturn[T any](pub Publisher[T], fallback T) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		pub.Subscribe(ctx, &errorReturnSubscriber[T]{
			relay:    relay{ctx: ctx},
			down:     s,
			fallback: fallback,
		})
	})
}

func (e *errorReturnSubscriber[T]) OnSubscribe(s Subscription) {
	e.setUpstream(s)
	e.down.OnSubscribe(e)
}

func (e *errorReturnSubscriber[T]) Request(n int64) {
	if n <= 0 {
		if e.terminate() {
			e.upstream().Cancel()
			e.down.OnError(fmt.Errorf("%w: %d", ErrInvalidRequest, n))
		}
		return
	}
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return
	}
	e.requested = AddDemand(e.requested, n)
	if e.pending {
		e.mu.Unlock()
		e.emitFallback()
		return
	}
	up := e.up
	e.mu.Unlock()
	if up != nil {
		up.Request(n)
	}
}

func (e *errorReturnSubscriber[T]) Cancel() {
	e.terminate()
	e.upstream().Cancel()
}

func (e *errorReturnSubscriber[T]) OnNext(v T) {
	e.mu.Lock()
	if e.done || e.pending {
		e.mu.Unlock()
		Dropped(e.ctx, v)
		return
	}
	if e.requested != Unbounded && e.requested > 0 {
		e.requested--
	}
	e.mu.Unlock()
	e.down.OnNext(v)
}

func (e *errorReturnSubscriber[T]) OnError(err error) {
	e.mu.Lock()
	if e.done || e.pending {
		e.mu.Unlock()
		e.dropError(err)
		return
	}
	e.pending = true
	ready := e.requested > 0
	e.mu.Unlock()
	if ready {
		e.emitFallback()
	}
}

func (e *errorReturnSubscriber[T]) OnComplete() {
	e.mu.Lock()
	if e.done || e.pending {
		e.mu.Unlock()
		return
	}
	e.done = true
	e.mu.Unlock()
	e.down.OnComplete()
}

func (e *errorReturnSubscriber[T]) emitFallback() {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return
	}
	e.done = true
	e.mu.Unlock()
	e.down.OnNext(e.fallback)
	e.down.OnComplete()
}
