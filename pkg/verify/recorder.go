package verify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kode4food/streamtest/pkg/log"
	"github.com/kode4food/streamtest/pkg/stream"
)

type (
	// recorder queues the signals of the verified subscription until steps
	// consume them
	recorder[T any] struct {
		mu         sync.Mutex
		initial    int64
		sub        stream.Subscription
		queue      []stream.Signal[T]
		terminated bool
		notify     chan struct{}
		incidents  *incidents
	}

	// incidents collects what the sequence dropped or discarded along the
	// way
	incidents struct {
		mu            sync.Mutex
		dropped       []any
		droppedErrors []error
		discarded     []any
	}
)

func newRecorder[T any](initial int64, inc *incidents) *recorder[T] {
	return &recorder[T]{
		initial:   initial,
		notify:    make(chan struct{}, 1),
		incidents: inc,
	}
}

func (r *recorder[T]) OnSubscribe(s stream.Subscription) {
	r.mu.Lock()
	if r.sub != nil {
		r.mu.Unlock()
		s.Cancel()
		return
	}
	r.sub = s
	r.push(stream.SubscribeSignal[T](s))
	r.mu.Unlock()
	if r.initial > 0 {
		s.Request(r.initial)
	}
}

func (r *recorder[T]) OnNext(v T) {
	r.mu.Lock()
	if r.terminated {
		r.mu.Unlock()
		r.incidents.dropValue(v)
		return
	}
	r.push(stream.NextSignal(v))
	r.mu.Unlock()
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	if r.terminated {
		r.mu.Unlock()
		r.incidents.dropError(err)
		return
	}
	r.terminated = true
	r.push(stream.ErrorSignal[T](err))
	r.mu.Unlock()
}

func (r *recorder[T]) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminated {
		return
	}
	r.terminated = true
	r.push(stream.CompleteSignal[T]())
}

func (r *recorder[T]) push(sig stream.Signal[T]) {
	slog.Debug("Signal recorded", log.Signal(sig.Kind))
	r.queue = append(r.queue, sig)
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recorder[T]) subscription() stream.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub
}

// head returns the oldest unconsumed signal without consuming it
func (r *recorder[T]) head() (stream.Signal[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return stream.Signal[T]{}, false
	}
	return r.queue[0], true
}

func (r *recorder[T]) pop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) > 0 {
		r.queue = r.queue[1:]
	}
}

// peek waits up to timeout for a signal to become available
func (r *recorder[T]) peek(
	ctx context.Context, timeout time.Duration,
) (stream.Signal[T], error) {
	if sig, ok := r.head(); ok {
		return sig, nil
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-r.notify:
			if sig, ok := r.head(); ok {
				return sig, nil
			}
		case <-deadline.C:
			return stream.Signal[T]{}, ErrTimeout
		case <-ctx.Done():
			return stream.Signal[T]{}, ctx.Err()
		}
	}
}

// quiet waits for d and reports the first signal that arrives meanwhile
func (r *recorder[T]) quiet(
	ctx context.Context, d time.Duration,
) (stream.Signal[T], bool, error) {
	if sig, ok := r.head(); ok {
		return sig, true, nil
	}
	wait := time.NewTimer(d)
	defer wait.Stop()
	for {
		select {
		case <-r.notify:
			if sig, ok := r.head(); ok {
				return sig, true, nil
			}
		case <-wait.C:
			sig, ok := r.head()
			return sig, ok, nil
		case <-ctx.Done():
			return stream.Signal[T]{}, false, ctx.Err()
		}
	}
}

// terminal reports the first terminal signal still queued, if any
func (r *recorder[T]) terminal() (stream.Signal[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sig := range r.queue {
		if sig.IsTerminal() {
			return sig, true
		}
	}
	return stream.Signal[T]{}, false
}

func (i *incidents) hooks() *stream.Hooks {
	return &stream.Hooks{
		OnNextDropped:  i.dropValue,
		OnErrorDropped: i.dropError,
		OnDiscard:      i.discard,
	}
}

func (i *incidents) dropValue(v any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	slog.Debug("Value dropped", log.Value(v))
	i.dropped = append(i.dropped, v)
}

func (i *incidents) dropError(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	slog.Debug("Error dropped", log.Error(err))
	i.droppedErrors = append(i.droppedErrors, err)
}

func (i *incidents) discard(v any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.discarded = append(i.discarded, v)
}
