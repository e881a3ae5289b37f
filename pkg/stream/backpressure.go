package stream

import (
	"context"
	"fmt"
)

type dropSubscriber[T any] struct {
	relay
	down      Subscriber[T]
	requested int64
}

// OnBackpressureDrop requests everything from upstream and discards the
// values that arrive while downstream has no outstanding demand
func OnBackpressureDrop[T any](pub Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		pub.Subscribe(ctx, &dropSubscriber[T]{
			relay: relay{ctx: ctx},
			down:  s,
		})
	})
}

func (d *dropSubscriber[T]) OnSubscribe(s Subscription) {
	d.setUpstream(s)
	d.down.OnSubscribe(d)
	s.Request(Unbounded)
}

func (d *dropSubscriber[T]) Request(n int64) {
	if n <= 0 {
		if d.terminate() {
			d.upstream().Cancel()
			d.down.OnError(fmt.Errorf("%w: %d", ErrInvalidRequest, n))
		}
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requested = AddDemand(d.requested, n)
}

func (d *dropSubscriber[T]) Cancel() {
	d.terminate()
	d.upstream().Cancel()
}

func (d *dropSubscriber[T]) OnNext(v T) {
	d.mu.Lock()
	switch {
	case d.done:
		d.mu.Unlock()
		Dropped(d.ctx, v)
		return
	case d.requested == 0:
		d.mu.Unlock()
		Discarded(d.ctx, v)
		return
	case d.requested != Unbounded:
		d.requested--
	}
	d.mu.Unlock()
	d.down.OnNext(v)
}

func (d *dropSubscriber[T]) OnError(err error) {
	if !d.terminate() {
		d.dropError(err)
		return
	}
	d.down.OnError(err)
}

func (d *dropSubscriber[T]) OnComplete() {
	if d.terminate() {
		d.down.OnComplete()
	}
}
