package stream_test

import (
	"sync"

	"github.com/kode4food/streamtest/pkg/stream"
)

type recorder[T any] struct {
	mu      sync.Mutex
	initial int64
	sub     stream.Subscription
	signals []stream.Signal[T]
	onNext  func(*recorder[T], T)
}

func newRecorder[T any](initial int64) *recorder[T] {
	return &recorder[T]{initial: initial}
}

func (r *recorder[T]) OnSubscribe(s stream.Subscription) {
	r.mu.Lock()
	r.sub = s
	r.signals = append(r.signals, stream.SubscribeSignal[T](s))
	r.mu.Unlock()
	if r.initial > 0 {
		s.Request(r.initial)
	}
}

func (r *recorder[T]) OnNext(v T) {
	r.mu.Lock()
	r.signals = append(r.signals, stream.NextSignal(v))
	r.mu.Unlock()
	if r.onNext != nil {
		r.onNext(r, v)
	}
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, stream.ErrorSignal[T](err))
}

func (r *recorder[T]) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, stream.CompleteSignal[T]())
}

func (r *recorder[T]) request(n int64) {
	r.mu.Lock()
	s := r.sub
	r.mu.Unlock()
	s.Request(n)
}

func (r *recorder[T]) cancel() {
	r.mu.Lock()
	s := r.sub
	r.mu.Unlock()
	s.Cancel()
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []T
	for _, s := range r.signals {
		if s.Kind == stream.OnNext {
			res = append(res, s.Value)
		}
	}
	return res
}

func (r *recorder[T]) kinds() []stream.SignalKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]stream.SignalKind, len(r.signals))
	for i, s := range r.signals {
		res[i] = s.Kind
	}
	return res
}

func (r *recorder[T]) last() stream.Signal[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.signals[len(r.signals)-1]
}
