package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/streamtest/pkg/timing"
)

type intervalSubscription struct {
	down      Subscriber[int64]
	sched     timing.Scheduler
	period    time.Duration
	path      []string
	mu        sync.Mutex
	requested int64
	count     int64
	done      bool
}

// Interval emits 0, 1, 2, ... every period on the context's scheduler. A
// tick that finds no outstanding demand terminates the sequence with
// ErrOverflow
func Interval(period time.Duration) Publisher[int64] {
	return PublisherFunc[int64](
		func(ctx context.Context, s Subscriber[int64]) {
			sub := &intervalSubscription{
				down:   s,
				sched:  timing.FromContext(ctx),
				period: period,
				path:   []string{"interval", uuid.NewString()},
			}
			s.OnSubscribe(sub)
			sub.scheduleTick()
		},
	)
}

func (s *intervalSubscription) Request(n int64) {
	if n <= 0 {
		s.terminate(fmt.Errorf("%w: %d", ErrInvalidRequest, n))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requested = AddDemand(s.requested, n)
}

func (s *intervalSubscription) Cancel() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.sched.CancelPrefix(s.path)
}

func (s *intervalSubscription) scheduleTick() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if !done {
		timing.After(s.sched, s.tickPath(), s.period, s.tick)
	}
}

func (s *intervalSubscription) tick() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	if s.requested == 0 {
		count := s.count
		s.mu.Unlock()
		s.terminate(fmt.Errorf("%w: tick %d", ErrOverflow, count))
		return nil
	}
	if s.requested != Unbounded {
		s.requested--
	}
	v := s.count
	s.count++
	s.mu.Unlock()

	s.scheduleTick()
	s.down.OnNext(v)
	return nil
}

func (s *intervalSubscription) terminate(err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()
	s.sched.CancelPrefix(s.path)
	s.down.OnError(err)
}

func (s *intervalSubscription) tickPath() []string {
	return append(s.path[:len(s.path):len(s.path)], "tick")
}
