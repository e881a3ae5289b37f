package timing

import (
	"sync"
	"time"
)

type (
	// Realtime runs scheduled tasks against a wall clock on a dedicated
	// goroutine. Tasks run one at a time, in time order
	Realtime struct {
		now       Clock
		makeTimer TimerConstructor
		tasks     chan taskReq
		stop      chan struct{}
		startOnce sync.Once
		stopOnce  sync.Once
		wg        sync.WaitGroup
	}

	// Clock reads the current time
	Clock func() time.Time

	// Timer is the resettable timer that wakes a Realtime scheduler
	Timer interface {
		Channel() <-chan time.Time
		Reset(delay time.Duration) bool
		Stop() bool
	}

	// TimerConstructor makes the Timer used by a Realtime scheduler
	TimerConstructor func(delay time.Duration) Timer

	wallTimer struct{ *time.Timer }

	taskReqOp uint8

	taskReq struct {
		op     taskReqOp
		task   *Task
		key    []string
		prefix []string
	}
)

const (
	taskReqSchedule taskReqOp = iota
	taskReqCancel
	taskReqCancelPrefix
)

const taskQueueSize = 100

var (
	defaultOnce     sync.Once
	defaultRealtime *Realtime
)

// Default returns the shared, already started realtime scheduler
func Default() *Realtime {
	defaultOnce.Do(func() {
		defaultRealtime = NewRealtime(time.Now, NewTimer)
		defaultRealtime.Start()
	})
	return defaultRealtime
}

// NewTimer wraps a standard library timer
func NewTimer(delay time.Duration) Timer {
	return wallTimer{time.NewTimer(delay)}
}

func (t wallTimer) Channel() <-chan time.Time {
	return t.C
}

// NewRealtime creates a scheduler using the provided clock and timer
// constructor. Call Start before scheduling work
func NewRealtime(now Clock, makeTimer TimerConstructor) *Realtime {
	return &Realtime{
		now:       now,
		makeTimer: makeTimer,
		tasks:     make(chan taskReq, taskQueueSize),
		stop:      make(chan struct{}),
	}
}

// Now returns the scheduler clock's current time
func (s *Realtime) Now() time.Time {
	return s.now()
}

// Start begins processing scheduler requests
func (s *Realtime) Start() {
	s.startOnce.Do(func() {
		s.wg.Go(s.run)
	})
}

// Stop halts the scheduler, discarding tasks that have not run
func (s *Realtime) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}

// Schedule enqueues a task to run at the requested time
func (s *Realtime) Schedule(path []string, at time.Time, fn TaskFunc) {
	s.send(taskReq{
		op:   taskReqSchedule,
		task: &Task{Func: fn, At: at, Path: path},
	})
}

// Cancel removes the task registered for the exact path
func (s *Realtime) Cancel(path []string) {
	s.send(taskReq{op: taskReqCancel, key: path})
}

// CancelPrefix removes all tasks under the provided path prefix
func (s *Realtime) CancelPrefix(prefix []string) {
	s.send(taskReq{op: taskReqCancelPrefix, prefix: prefix})
}

func (s *Realtime) send(req taskReq) {
	select {
	case s.tasks <- req:
	case <-s.stop:
	}
}

func (s *Realtime) run() {
	timer := s.makeTimer(0)
	var timerCh <-chan time.Time
	tasks := NewTaskHeap()

	resetTimer := func() {
		t := tasks.Peek()
		if t == nil {
			timer.Stop()
			timerCh = nil
			return
		}
		timer.Reset(t.At.Sub(s.now()))
		timerCh = timer.Channel()
	}

	resetTimer()

	for {
		select {
		case <-s.stop:
			timer.Stop()
			return
		case req := <-s.tasks:
			switch req.op {
			case taskReqSchedule:
				tasks.Insert(req.task)
			case taskReqCancel:
				tasks.Cancel(req.key)
			case taskReqCancelPrefix:
				tasks.CancelPrefix(req.prefix)
			}
			resetTimer()
		case <-timerCh:
			if task := tasks.PopTask(); task != nil {
				runTask(task)
			}
			resetTimer()
		}
	}
}
