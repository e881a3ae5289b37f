package stream

import (
	"context"
	"sync"
)

type (
	// Funcs is a Subscriber built from optional callbacks. Unless OnStart
	// is provided, it requests Unbounded on subscription
	Funcs[T any] struct {
		OnStart func(Subscription)
		Next    func(T)
		Error   func(error)
		Done    func()
	}

	collector[T any] struct {
		mu     sync.Mutex
		sub    Subscription
		values []T
		err    error
		done   chan struct{}
		once   sync.Once
	}
)

var _ Subscriber[any] = Funcs[any]{}

// Collect subscribes to pub with unbounded demand and gathers its values.
// It returns the values and the terminal error, or ctx's error when ctx is
// done first, in which case the subscription is cancelled
func Collect[T any](ctx context.Context, pub Publisher[T]) ([]T, error) {
	c := &collector[T]{done: make(chan struct{})}
	pub.Subscribe(ctx, c)
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.values, c.err
	case <-ctx.Done():
		c.mu.Lock()
		sub := c.sub
		res := append([]T(nil), c.values...)
		c.mu.Unlock()
		if sub != nil {
			sub.Cancel()
		}
		return res, ctx.Err()
	}
}

// OnSubscribe implements Subscriber
func (f Funcs[T]) OnSubscribe(s Subscription) {
	if f.OnStart != nil {
		f.OnStart(s)
		return
	}
	s.Request(Unbounded)
}

// OnNext implements Subscriber
func (f Funcs[T]) OnNext(v T) {
	if f.Next != nil {
		f.Next(v)
	}
}

// OnError implements Subscriber
func (f Funcs[T]) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// OnComplete implements Subscriber
func (f Funcs[T]) OnComplete() {
	if f.Done != nil {
		f.Done()
	}
}

func (c *collector[T]) OnSubscribe(s Subscription) {
	c.mu.Lock()
	c.sub = s
	c.mu.Unlock()
	s.Request(Unbounded)
}

func (c *collector[T]) OnNext(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

func (c *collector[T]) OnError(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *collector[T]) OnComplete() {
	c.once.Do(func() {
		close(c.done)
	})
}
