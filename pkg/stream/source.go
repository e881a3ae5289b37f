package stream

import (
	"context"
	"fmt"
	"sync"
)

// silentSubscription belongs to a source that never emits values. Its only
// signal of its own is the error for an invalid request
type silentSubscription[T any] struct {
	down Subscriber[T]
	mu   sync.Mutex
	done bool
}

// indexedSubscription emits count values produced by at, honoring demand.
// Request calls made from within OnNext only add demand; the active drain
// loop emits them, so recursion depth stays constant
type indexedSubscription[T any] struct {
	down      Subscriber[T]
	at        func(int) T
	count     int
	mu        sync.Mutex
	idx       int
	requested int64
	draining  bool
	done      bool
	err       error
}

// Just emits the provided values, then completes
func Just[T any](vals ...T) Publisher[T] {
	return FromSlice(vals)
}

// FromSlice emits the elements of vals, then completes. The slice is not
// copied
func FromSlice[T any](vals []T) Publisher[T] {
	return indexed(len(vals), func(i int) T {
		return vals[i]
	})
}

// Range emits count consecutive integers starting at start
func Range(start, count int) Publisher[int] {
	if count < 0 {
		count = 0
	}
	return indexed(count, func(i int) int {
		return start + i
	})
}

// Empty completes without emitting
func Empty[T any]() Publisher[T] {
	return PublisherFunc[T](func(_ context.Context, s Subscriber[T]) {
		sub := &silentSubscription[T]{down: s}
		s.OnSubscribe(sub)
		if sub.end() {
			s.OnComplete()
		}
	})
}

// Fail terminates immediately with err
func Fail[T any](err error) Publisher[T] {
	return PublisherFunc[T](func(_ context.Context, s Subscriber[T]) {
		sub := &silentSubscription[T]{down: s}
		s.OnSubscribe(sub)
		if sub.end() {
			s.OnError(err)
		}
	})
}

// Never subscribes and then stays silent until cancelled or given an
// invalid request
func Never[T any]() Publisher[T] {
	return PublisherFunc[T](func(_ context.Context, s Subscriber[T]) {
		s.OnSubscribe(&silentSubscription[T]{down: s})
	})
}

// Defer calls supplier for every subscription and subscribes to its result
func Defer[T any](supplier func() Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		supplier().Subscribe(ctx, s)
	})
}

func indexed[T any](count int, at func(int) T) Publisher[T] {
	return PublisherFunc[T](func(_ context.Context, s Subscriber[T]) {
		sub := &indexedSubscription[T]{
			down:  s,
			at:    at,
			count: count,
		}
		s.OnSubscribe(sub)
		sub.resume()
	})
}

func (s *indexedSubscription[T]) Request(n int64) {
	if n <= 0 {
		s.fail(fmt.Errorf("%w: %d", ErrInvalidRequest, n))
		return
	}
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.requested = AddDemand(s.requested, n)
	s.mu.Unlock()
	s.resume()
}

func (s *indexedSubscription[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
}

func (s *indexedSubscription[T]) fail(err error) {
	s.mu.Lock()
	if s.done || s.err != nil {
		s.mu.Unlock()
		return
	}
	s.err = err
	s.mu.Unlock()
	s.resume()
}

func (s *indexedSubscription[T]) resume() {
	s.mu.Lock()
	if s.draining || s.done {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()
	s.drain()
}

func (s *indexedSubscription[T]) drain() {
	for {
		s.mu.Lock()
		switch {
		case s.done:
			s.draining = false
			s.mu.Unlock()
			return
		case s.err != nil:
			s.done = true
			s.draining = false
			err := s.err
			s.mu.Unlock()
			s.down.OnError(err)
			return
		case s.idx >= s.count:
			s.done = true
			s.draining = false
			s.mu.Unlock()
			s.down.OnComplete()
			return
		case s.requested == 0:
			s.draining = false
			s.mu.Unlock()
			return
		}
		v := s.at(s.idx)
		s.idx++
		if s.requested != Unbounded {
			s.requested--
		}
		s.mu.Unlock()
		s.down.OnNext(v)
	}
}

func (s *silentSubscription[T]) Request(n int64) {
	if n > 0 {
		return
	}
	if s.end() {
		s.down.OnError(fmt.Errorf("%w: %d", ErrInvalidRequest, n))
	}
}

func (s *silentSubscription[T]) Cancel() {
	s.end()
}

// end marks the subscription terminated, reporting whether it was still
// open
func (s *silentSubscription[T]) end() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	s.done = true
	return true
}
