package stream

import "context"

type takeSubscriber[T any] struct {
	relay
	down      Subscriber[T]
	remaining int64
}

// Take emits at most n values and then completes, cancelling the upstream.
// Values that arrive after the limit is reached are reported as discarded
func Take[T any](pub Publisher[T], n int64) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		pub.Subscribe(ctx, &takeSubscriber[T]{
			relay:     relay{ctx: ctx},
			down:      s,
			remaining: max(n, 0),
		})
	})
}

func (t *takeSubscriber[T]) OnSubscribe(s Subscription) {
	t.setUpstream(s)
	if t.remaining == 0 {
		s.Cancel()
		t.terminate()
		t.down.OnSubscribe(emptySubscription{})
		t.down.OnComplete()
		return
	}
	t.down.OnSubscribe(s)
}

func (t *takeSubscriber[T]) OnNext(v T) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		Discarded(t.ctx, v)
		return
	}
	t.remaining--
	last := t.remaining == 0
	if last {
		t.done = true
	}
	t.mu.Unlock()

	t.down.OnNext(v)
	if last {
		t.upstream().Cancel()
		t.down.OnComplete()
	}
}

func (t *takeSubscriber[T]) OnError(err error) {
	if !t.terminate() {
		t.dropError(err)
		return
	}
	t.down.OnError(err)
}

func (t *takeSubscriber[T]) OnComplete() {
	if t.terminate() {
		t.down.OnComplete()
	}
}
