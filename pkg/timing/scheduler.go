package timing

import (
	"context"
	"log/slog"
	"time"

	"github.com/kode4food/streamtest/pkg/log"
)

type (
	// Scheduler runs tasks at a point in time. Tasks are keyed by a
	// hierarchical path: scheduling an existing path replaces its task, and
	// cancelling a prefix removes every task beneath it
	Scheduler interface {
		Now() time.Time
		Schedule(path []string, at time.Time, fn TaskFunc)
		Cancel(path []string)
		CancelPrefix(prefix []string)
	}

	// TaskFunc is called when its run time arrives
	TaskFunc func() error

	schedulerKey struct{}
)

// WithScheduler returns a context whose time-based operators use s
func WithScheduler(ctx context.Context, s Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey{}, s)
}

// FromContext returns the scheduler carried by ctx, or the shared realtime
// scheduler when there is none
func FromContext(ctx context.Context) Scheduler {
	if s, ok := ctx.Value(schedulerKey{}).(Scheduler); ok && s != nil {
		return s
	}
	return Default()
}

// After schedules fn to run once delay has elapsed on s
func After(s Scheduler, path []string, delay time.Duration, fn TaskFunc) {
	s.Schedule(path, s.Now().Add(delay), fn)
}

func runTask(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Scheduled task panicked",
				log.Path(t.Path),
				slog.Any("panic", r))
		}
	}()
	if err := t.Func(); err != nil {
		slog.Error("Scheduled task failed",
			log.Path(t.Path),
			log.Error(err))
	}
}
