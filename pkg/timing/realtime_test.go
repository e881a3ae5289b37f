package timing_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/streamtest/pkg/timing"
)

type (
	testTimerConstructor struct {
		created chan *fakeTimer
	}

	fakeTimer struct {
		ch      chan time.Time
		resets  chan time.Duration
		stops   chan struct{}
		stopped atomic.Bool
	}
)

const schedulerWaitTimeout = time.Second

func TestRealtimeScheduleTask(t *testing.T) {
	withFakeScheduler(t, func(
		s *timing.Realtime, timer *fakeTimer, now time.Time,
	) {
		done := make(chan struct{}, 1)

		s.Schedule([]string{"sched", "run"}, now.Add(40*time.Millisecond),
			func() error {
				done <- struct{}{}
				return nil
			},
		)
		assert.Equal(t, 40*time.Millisecond, timer.WaitReset(t))
		timer.Fire(now)

		select {
		case <-done:
		case <-time.After(schedulerWaitTimeout):
			t.Fatal("scheduled task did not run")
		}
	})
}

func TestRealtimeReplacesSamePath(t *testing.T) {
	withFakeScheduler(t, func(
		s *timing.Realtime, timer *fakeTimer, now time.Time,
	) {
		var firstRuns atomic.Int32
		secondDone := make(chan struct{}, 1)
		path := []string{"sched", "replace"}

		s.Schedule(path, now.Add(300*time.Millisecond), func() error {
			firstRuns.Add(1)
			return nil
		})
		assert.Equal(t, 300*time.Millisecond, timer.WaitReset(t))

		s.Schedule(path, now.Add(40*time.Millisecond), func() error {
			secondDone <- struct{}{}
			return nil
		})
		assert.Equal(t, 40*time.Millisecond, timer.WaitReset(t))
		timer.Fire(now)

		select {
		case <-secondDone:
		case <-time.After(schedulerWaitTimeout):
			t.Fatal("replacement task did not run")
		}
		assert.Equal(t, int32(0), firstRuns.Load())
	})
}

func TestRealtimeCancelTask(t *testing.T) {
	withFakeScheduler(t, func(
		s *timing.Realtime, timer *fakeTimer, now time.Time,
	) {
		var ran atomic.Bool
		path := []string{"sched", "cancel", "one"}
		s.Schedule(path, now.Add(100*time.Millisecond), func() error {
			ran.Store(true)
			return nil
		})
		assert.Equal(t, 100*time.Millisecond, timer.WaitReset(t))

		s.CancelPrefix([]string{"sched", "cancel"})
		timer.WaitStop(t)
		timer.Fire(now)

		time.Sleep(50 * time.Millisecond)
		assert.False(t, ran.Load())
	})
}

func TestRealtimeWithSystemTimer(t *testing.T) {
	s := timing.NewRealtime(time.Now, timing.NewTimer)
	s.Start()
	defer s.Stop()

	done := make(chan struct{})
	timing.After(s, nil, 10*time.Millisecond, func() error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(schedulerWaitTimeout):
		t.Fatal("scheduled task did not run")
	}
}

func (c *testTimerConstructor) NewTimer(time.Duration) timing.Timer {
	timer := &fakeTimer{
		ch:     make(chan time.Time, 1),
		resets: make(chan time.Duration, 16),
		stops:  make(chan struct{}, 16),
	}
	select {
	case c.created <- timer:
	default:
	}
	return timer
}

func (c *testTimerConstructor) WaitTimer(t *testing.T) *fakeTimer {
	t.Helper()
	select {
	case timer := <-c.created:
		return timer
	case <-time.After(schedulerWaitTimeout):
		t.Fatal("scheduler timer was not created")
		return nil
	}
}

func (t *fakeTimer) Channel() <-chan time.Time {
	return t.ch
}

func (t *fakeTimer) Reset(delay time.Duration) bool {
	t.stopped.Store(false)
	drainTimeChan(t.ch)
	t.resets <- delay
	return true
}

func (t *fakeTimer) Stop() bool {
	alreadyStopped := t.stopped.Load()
	t.stopped.Store(true)
	drainTimeChan(t.ch)
	t.stops <- struct{}{}
	return !alreadyStopped
}

func (t *fakeTimer) Fire(at time.Time) {
	if t.stopped.Load() {
		return
	}
	select {
	case t.ch <- at:
	default:
	}
}

func (t *fakeTimer) WaitReset(test *testing.T) time.Duration {
	test.Helper()
	select {
	case delay := <-t.resets:
		return delay
	case <-time.After(schedulerWaitTimeout):
		test.Fatal("scheduler timer reset not observed")
		return 0
	}
}

func (t *fakeTimer) WaitStop(test *testing.T) {
	test.Helper()
	select {
	case <-t.stops:
	case <-time.After(schedulerWaitTimeout):
		test.Fatal("scheduler timer stop not observed")
	}
}

func (t *fakeTimer) drain() {
	for {
		select {
		case <-t.resets:
		case <-t.stops:
		default:
			return
		}
	}
}

func withFakeScheduler(
	t *testing.T, fn func(*timing.Realtime, *fakeTimer, time.Time),
) {
	t.Helper()
	now := time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)
	tc := &testTimerConstructor{created: make(chan *fakeTimer, 1)}
	s := timing.NewRealtime(func() time.Time { return now }, tc.NewTimer)
	s.Start()
	defer s.Stop()

	timer := tc.WaitTimer(t)
	timer.WaitStop(t)
	timer.drain()
	fn(s, timer, now)
}

func drainTimeChan(ch <-chan time.Time) {
	select {
	case <-ch:
	default:
	}
}
