package timing

import (
	"container/heap"
	"time"

	"github.com/kode4food/streamtest/pkg/util"
)

type (
	// Task is a function due at a point in time. A task with a Path can be
	// replaced or cancelled through that path
	Task struct {
		Func TaskFunc
		At   time.Time
		Path []string

		order uint64
		slot  int
	}

	// TaskHeap orders tasks by due time, then by the order they were
	// scheduled. It is not safe for concurrent use
	TaskHeap struct {
		queue   taskQueue
		keyed   *util.PathTree[*Task]
		counter uint64
	}

	// taskQueue implements heap.Interface
	taskQueue []*Task
)

func NewTaskHeap() *TaskHeap {
	return &TaskHeap{keyed: util.NewPathTree[*Task]()}
}

// Insert queues t. If a task is already queued at t's path, that task
// takes t's function and due time and moves behind any task due at the
// same instant
func (h *TaskHeap) Insert(t *Task) {
	if t == nil || t.Func == nil || t.At.IsZero() {
		return
	}
	h.counter++
	if len(t.Path) > 0 {
		if cur, ok := h.keyed.Get(t.Path); ok {
			cur.Func, cur.At, cur.order = t.Func, t.At, h.counter
			heap.Fix(&h.queue, cur.slot)
			return
		}
		h.keyed.Insert(t.Path, t)
	}
	t.order = h.counter
	heap.Push(&h.queue, t)
}

// PopTask removes the earliest task, or returns nil when none is queued
func (h *TaskHeap) PopTask() *Task {
	if len(h.queue) == 0 {
		return nil
	}
	t := heap.Pop(&h.queue).(*Task)
	h.unkey(t)
	return t
}

// Peek returns the earliest task without removing it
func (h *TaskHeap) Peek() *Task {
	if len(h.queue) == 0 {
		return nil
	}
	return h.queue[0]
}

// Cancel removes the task queued at exactly path
func (h *TaskHeap) Cancel(path []string) {
	if len(path) == 0 {
		return
	}
	if t, ok := h.keyed.Get(path); ok {
		heap.Remove(&h.queue, t.slot)
		h.keyed.Remove(path)
	}
}

// CancelPrefix removes every task queued at or below prefix
func (h *TaskHeap) CancelPrefix(prefix []string) {
	if len(prefix) == 0 {
		return
	}
	h.keyed.DetachWith(prefix, func(t *Task) {
		heap.Remove(&h.queue, t.slot)
	})
}

func (h *TaskHeap) Len() int {
	return len(h.queue)
}

func (h *TaskHeap) unkey(t *Task) {
	if len(t.Path) == 0 {
		return
	}
	if cur, ok := h.keyed.Get(t.Path); ok && cur == t {
		h.keyed.Remove(t.Path)
	}
}

func (q taskQueue) Len() int {
	return len(q)
}

func (q taskQueue) Less(i, j int) bool {
	if q[i].At.Equal(q[j].At) {
		return q[i].order < q[j].order
	}
	return q[i].At.Before(q[j].At)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].slot, q[j].slot = i, j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.slot = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old) - 1
	t := old[n]
	old[n] = nil
	*q = old[:n]
	t.slot = -1
	return t
}
