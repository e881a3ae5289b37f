package stream

import (
	"context"
	"fmt"
	"sync"
)

type (
	concatSubscription[T any] struct {
		ctx       context.Context
		down      Subscriber[T]
		sources   []Publisher[T]
		mu        sync.Mutex
		idx       int
		requested int64
		current   Subscription
		done      bool
	}

	concatInner[T any] struct {
		parent *concatSubscription[T]
		done   bool
	}
)

// Concat subscribes to each source in turn, moving to the next when the
// previous one completes. Outstanding demand carries over between sources
func Concat[T any](sources ...Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		c := &concatSubscription[T]{
			ctx:     ctx,
			down:    s,
			sources: sources,
		}
		s.OnSubscribe(c)
		c.next()
	})
}

func (c *concatSubscription[T]) Request(n int64) {
	if n <= 0 {
		c.fail(fmt.Errorf("%w: %d", ErrInvalidRequest, n))
		return
	}
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.requested = AddDemand(c.requested, n)
	cur := c.current
	c.mu.Unlock()
	if cur != nil {
		cur.Request(n)
	}
}

func (c *concatSubscription[T]) Cancel() {
	c.mu.Lock()
	c.done = true
	cur := c.current
	c.mu.Unlock()
	if cur != nil {
		cur.Cancel()
	}
}

func (c *concatSubscription[T]) next() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	if c.idx >= len(c.sources) {
		c.done = true
		c.mu.Unlock()
		c.down.OnComplete()
		return
	}
	src := c.sources[c.idx]
	c.idx++
	c.current = nil
	c.mu.Unlock()
	src.Subscribe(c.ctx, &concatInner[T]{parent: c})
}

func (c *concatSubscription[T]) fail(err error) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		ErrorDropped(c.ctx, err)
		return
	}
	c.done = true
	cur := c.current
	c.mu.Unlock()
	if cur != nil {
		cur.Cancel()
	}
	c.down.OnError(err)
}

func (i *concatInner[T]) OnSubscribe(s Subscription) {
	p := i.parent
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		s.Cancel()
		return
	}
	p.current = s
	r := p.requested
	p.mu.Unlock()
	if r > 0 {
		s.Request(r)
	}
}

func (i *concatInner[T]) OnNext(v T) {
	p := i.parent
	p.mu.Lock()
	if p.done || i.done {
		p.mu.Unlock()
		Dropped(p.ctx, v)
		return
	}
	if p.requested != Unbounded && p.requested > 0 {
		p.requested--
	}
	p.mu.Unlock()
	p.down.OnNext(v)
}

func (i *concatInner[T]) OnError(err error) {
	if i.done {
		ErrorDropped(i.parent.ctx, err)
		return
	}
	i.done = true
	i.parent.fail(err)
}

func (i *concatInner[T]) OnComplete() {
	if i.done {
		return
	}
	i.done = true
	i.parent.next()
}
