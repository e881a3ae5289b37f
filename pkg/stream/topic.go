package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/kode4food/caravan/topic"
)

type topicSubscription[T any] struct {
	ctx       context.Context
	down      Subscriber[T]
	cons      topic.Consumer[T]
	wake      chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
	mu        sync.Mutex
	requested int64
	err       error
}

// FromTopic reads values from a new consumer of t for every subscription.
// Values are read only while downstream demand is outstanding. Topics never
// end on their own, so the sequence stays open until it is cancelled, which
// closes the consumer, or until ctx is done, which fails it. Bound it with
// Take to get completion
func FromTopic[T any](t topic.Topic[T]) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		sub := &topicSubscription[T]{
			ctx:  ctx,
			down: s,
			cons: t.NewConsumer(),
			wake: make(chan struct{}, 1),
			stop: make(chan struct{}),
		}
		s.OnSubscribe(sub)
		go sub.run()
	})
}

func (s *topicSubscription[T]) Request(n int64) {
	s.mu.Lock()
	if n <= 0 {
		if s.err == nil {
			s.err = fmt.Errorf("%w: %d", ErrInvalidRequest, n)
		}
	} else {
		s.requested = AddDemand(s.requested, n)
	}
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *topicSubscription[T]) Cancel() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *topicSubscription[T]) run() {
	defer s.cons.Close()
	for {
		if ok, err := s.awaitDemand(); !ok {
			if err != nil {
				s.down.OnError(err)
			}
			return
		}
		select {
		case <-s.stop:
			return
		case <-s.ctx.Done():
			s.down.OnError(s.ctx.Err())
			return
		case v, ok := <-s.cons.Receive():
			if !ok {
				return
			}
			s.mu.Lock()
			if s.requested != Unbounded {
				s.requested--
			}
			s.mu.Unlock()
			s.down.OnNext(v)
		}
	}
}

// awaitDemand blocks until a value may be read. It returns false when the
// subscription ends, along with the error to deliver, if any
func (s *topicSubscription[T]) awaitDemand() (bool, error) {
	for {
		s.mu.Lock()
		err, ready := s.err, s.requested > 0
		s.mu.Unlock()
		if err != nil {
			return false, err
		}
		if ready {
			return true, nil
		}
		select {
		case <-s.stop:
			return false, nil
		case <-s.ctx.Done():
			return false, s.ctx.Err()
		case <-s.wake:
		}
	}
}
