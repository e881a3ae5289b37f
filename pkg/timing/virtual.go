package timing

import (
	"sync"
	"time"
)

// Virtual is a manually advanced clock. Nothing runs until the clock is
// advanced, except tasks that are already due when scheduled. Due tasks run
// in time order on the advancing goroutine, and Now reports each task's due
// time while it runs
type Virtual struct {
	mu       sync.Mutex
	now      time.Time
	target   time.Time
	tasks    *TaskHeap
	draining bool
}

// VirtualEpoch is the starting instant of a virtual clock
var VirtualEpoch = time.Unix(0, 0).UTC()

// NewVirtual creates a virtual clock starting at VirtualEpoch
func NewVirtual() *Virtual {
	return NewVirtualAt(VirtualEpoch)
}

// NewVirtualAt creates a virtual clock starting at the provided instant
func NewVirtualAt(start time.Time) *Virtual {
	return &Virtual{
		now:    start,
		target: start,
		tasks:  NewTaskHeap(),
	}
}

// Now returns the current virtual time
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Schedule registers a task. A task that is already due runs before
// Schedule returns, unless the clock is currently advancing, in which case
// the active advance picks it up
func (v *Virtual) Schedule(path []string, at time.Time, fn TaskFunc) {
	v.mu.Lock()
	v.tasks.Insert(&Task{Func: fn, At: at, Path: path})
	due := !at.After(v.now)
	now := v.now
	v.mu.Unlock()
	if due {
		v.AdvanceTimeTo(now)
	}
}

// Cancel removes the task registered for the exact path
func (v *Virtual) Cancel(path []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tasks.Cancel(path)
}

// CancelPrefix removes all tasks under the provided path prefix
func (v *Virtual) CancelPrefix(prefix []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tasks.CancelPrefix(prefix)
}

// Pending returns the number of tasks that have not yet run
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tasks.Len()
}

// AdvanceTime runs every task that is due at the current virtual time
func (v *Virtual) AdvanceTime() {
	v.AdvanceTimeTo(v.Now())
}

// AdvanceTimeBy moves the clock forward by d, running due tasks
func (v *Virtual) AdvanceTimeBy(d time.Duration) {
	if d < 0 {
		d = 0
	}
	v.AdvanceTimeTo(v.Now().Add(d))
}

// AdvanceTimeTo moves the clock forward to t, running due tasks. The clock
// never moves backwards. Called from within a running task, it extends the
// active advance rather than starting a nested one
func (v *Virtual) AdvanceTimeTo(t time.Time) {
	v.mu.Lock()
	if t.After(v.target) {
		v.target = t
	}
	if v.draining {
		v.mu.Unlock()
		return
	}
	v.draining = true
	for {
		next := v.tasks.Peek()
		if next == nil || next.At.After(v.target) {
			break
		}
		task := v.tasks.PopTask()
		if task.At.After(v.now) {
			v.now = task.At
		}
		v.mu.Unlock()
		runTask(task)
		v.mu.Lock()
	}
	if v.target.After(v.now) {
		v.now = v.target
	}
	v.draining = false
	v.mu.Unlock()
}
