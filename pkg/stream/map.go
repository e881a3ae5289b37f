package stream

import "context"

type (
	mapSubscriber[T, R any] struct {
		relay
		down Subscriber[R]
		fn   func(T) (R, error)
	}

	filterSubscriber[T any] struct {
		relay
		down Subscriber[T]
		pred func(T) (bool, error)
	}
)

// Map transforms each value with fn. An error returned by fn cancels the
// upstream and terminates the sequence with that error
func Map[T, R any](pub Publisher[T], fn func(T) (R, error)) Publisher[R] {
	return PublisherFunc[R](func(ctx context.Context, s Subscriber[R]) {
		pub.Subscribe(ctx, &mapSubscriber[T, R]{
			relay: relay{ctx: ctx},
			down:  s,
			fn:    fn,
		})
	})
}

// Filter passes through the values accepted by pred. Rejected values are
// reported as discarded and replaced by a request for one more
func Filter[T any](pub Publisher[T], pred func(T) (bool, error)) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		pub.Subscribe(ctx, &filterSubscriber[T]{
			relay: relay{ctx: ctx},
			down:  s,
			pred:  pred,
		})
	})
}

func (m *mapSubscriber[T, R]) OnSubscribe(s Subscription) {
	m.setUpstream(s)
	m.down.OnSubscribe(s)
}

func (m *mapSubscriber[T, R]) OnNext(v T) {
	if m.terminated() {
		Dropped(m.ctx, v)
		return
	}
	res, err := m.fn(v)
	if err != nil {
		m.fail(err)
		return
	}
	m.down.OnNext(res)
}

func (m *mapSubscriber[T, R]) OnError(err error) {
	if !m.terminate() {
		m.dropError(err)
		return
	}
	m.down.OnError(err)
}

func (m *mapSubscriber[T, R]) OnComplete() {
	if m.terminate() {
		m.down.OnComplete()
	}
}

func (m *mapSubscriber[T, R]) fail(err error) {
	if !m.terminate() {
		m.dropError(err)
		return
	}
	m.upstream().Cancel()
	m.down.OnError(err)
}

func (f *filterSubscriber[T]) OnSubscribe(s Subscription) {
	f.setUpstream(s)
	f.down.OnSubscribe(s)
}

func (f *filterSubscriber[T]) OnNext(v T) {
	if f.terminated() {
		Dropped(f.ctx, v)
		return
	}
	ok, err := f.pred(v)
	switch {
	case err != nil:
		if f.terminate() {
			f.upstream().Cancel()
			f.down.OnError(err)
		}
	case ok:
		f.down.OnNext(v)
	default:
		Discarded(f.ctx, v)
		f.upstream().Request(1)
	}
}

func (f *filterSubscriber[T]) OnError(err error) {
	if !f.terminate() {
		f.dropError(err)
		return
	}
	f.down.OnError(err)
}

func (f *filterSubscriber[T]) OnComplete() {
	if f.terminate() {
		f.down.OnComplete()
	}
}
