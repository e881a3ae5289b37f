package stream

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/streamtest/pkg/timing"
)

type delaySubscriber[T any] struct {
	ctx       context.Context
	down      Subscriber[T]
	sched     timing.Scheduler
	delay     time.Duration
	path      []string
	mu        sync.Mutex
	up        Subscription
	requested int64
	seq       int
	inFlight  bool
	pending   bool
	upDone    bool
	done      bool
}

// DelayElements shifts every value by delay on the context's scheduler.
// Values are requested from upstream one at a time, so consecutive values
// are spaced at least delay apart. Completion follows the last value
// immediately and errors are delivered without delay
func DelayElements[T any](pub Publisher[T], delay time.Duration) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		pub.Subscribe(ctx, &delaySubscriber[T]{
			ctx:   ctx,
			down:  s,
			sched: timing.FromContext(ctx),
			delay: delay,
			path:  []string{"delay", uuid.NewString()},
		})
	})
}

func (d *delaySubscriber[T]) OnSubscribe(s Subscription) {
	d.mu.Lock()
	d.up = s
	d.mu.Unlock()
	d.down.OnSubscribe(d)
}

func (d *delaySubscriber[T]) Request(n int64) {
	if n <= 0 {
		d.OnError(fmt.Errorf("%w: %d", ErrInvalidRequest, n))
		d.cancelUpstream()
		return
	}
	d.mu.Lock()
	if d.done {
		d.mu.Unlock()
		return
	}
	d.requested = AddDemand(d.requested, n)
	d.mu.Unlock()
	d.pull()
}

func (d *delaySubscriber[T]) Cancel() {
	d.mu.Lock()
	d.done = true
	d.mu.Unlock()
	d.sched.CancelPrefix(d.path)
	d.cancelUpstream()
}

func (d *delaySubscriber[T]) OnNext(v T) {
	d.mu.Lock()
	if d.done || d.upDone {
		d.mu.Unlock()
		Dropped(d.ctx, v)
		return
	}
	d.seq++
	d.pending = true
	path := d.taskPath("next", strconv.Itoa(d.seq))
	d.mu.Unlock()

	timing.After(d.sched, path, d.delay, func() error {
		d.emit(v)
		return nil
	})
}

func (d *delaySubscriber[T]) OnError(err error) {
	d.mu.Lock()
	if d.done || d.upDone {
		d.mu.Unlock()
		ErrorDropped(d.ctx, err)
		return
	}
	d.upDone = true
	d.mu.Unlock()

	d.sched.CancelPrefix(d.path)
	d.sched.Schedule(d.taskPath("error"), d.sched.Now(), func() error {
		if d.finish() {
			d.down.OnError(err)
		}
		return nil
	})
}

func (d *delaySubscriber[T]) OnComplete() {
	d.mu.Lock()
	if d.done || d.upDone {
		d.mu.Unlock()
		return
	}
	d.upDone = true
	pending := d.pending
	d.mu.Unlock()

	if pending {
		// the scheduled value task completes after emitting
		return
	}
	d.sched.Schedule(d.taskPath("complete"), d.sched.Now(), func() error {
		if d.finish() {
			d.down.OnComplete()
		}
		return nil
	})
}

func (d *delaySubscriber[T]) emit(v T) {
	d.mu.Lock()
	if d.done {
		d.mu.Unlock()
		Dropped(d.ctx, v)
		return
	}
	d.inFlight = false
	d.pending = false
	if d.requested != Unbounded {
		d.requested--
	}
	d.mu.Unlock()

	d.down.OnNext(v)

	d.mu.Lock()
	complete := d.upDone && !d.done
	if complete {
		d.done = true
	}
	d.mu.Unlock()
	if complete {
		d.down.OnComplete()
		return
	}
	d.pull()
}

func (d *delaySubscriber[T]) pull() {
	d.mu.Lock()
	if d.done || d.upDone || d.inFlight || d.requested == 0 || d.up == nil {
		d.mu.Unlock()
		return
	}
	d.inFlight = true
	up := d.up
	d.mu.Unlock()
	up.Request(1)
}

func (d *delaySubscriber[T]) finish() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return false
	}
	d.done = true
	return true
}

func (d *delaySubscriber[T]) cancelUpstream() {
	d.mu.Lock()
	up := d.up
	d.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}

func (d *delaySubscriber[T]) taskPath(parts ...string) []string {
	return append(d.path[:len(d.path):len(d.path)], parts...)
}
