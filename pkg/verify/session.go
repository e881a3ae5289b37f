package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kode4food/streamtest/pkg/stream"
	"github.com/kode4food/streamtest/pkg/timing"
)

// session is the state of a single verification run
type session[T any] struct {
	ctx      context.Context
	name     string
	timeout  time.Duration
	virtual  *timing.Virtual
	supplier func() stream.Publisher[T]
	rec      *recorder[T]
	current  string
	done     bool
}

func (ss *session[T]) run(steps []*step[T]) error {
	defer func() {
		if !ss.done {
			ss.cancel()
		}
	}()

	ss.current = "subscribe"
	ss.supplier().Subscribe(ss.ctx, ss.rec)
	for _, st := range steps {
		ss.current = st.desc
		logStep(ss.name, st.desc)
		if err := st.run(ss); err != nil {
			return err
		}
	}
	return nil
}

// peekRaw waits for the next signal without consuming it
func (ss *session[T]) peekRaw() (stream.Signal[T], error) {
	sig, err := ss.rec.peek(ss.ctx, ss.timeout)
	if err != nil {
		return sig, ss.waitFailed(err)
	}
	return sig, nil
}

func (ss *session[T]) takeRaw() (stream.Signal[T], error) {
	sig, err := ss.peekRaw()
	if err != nil {
		return sig, err
	}
	ss.rec.pop()
	ss.consumed(sig)
	return sig, nil
}

// peek waits for the next signal, first consuming the subscription signal
// if no step has done so yet
func (ss *session[T]) peek() (stream.Signal[T], error) {
	for {
		sig, err := ss.peekRaw()
		if err != nil || sig.Kind != stream.OnSubscribe {
			return sig, err
		}
		ss.rec.pop()
		ss.consumed(sig)
	}
}

func (ss *session[T]) take() (stream.Signal[T], error) {
	sig, err := ss.peek()
	if err != nil {
		return sig, err
	}
	ss.rec.pop()
	ss.consumed(sig)
	return sig, nil
}

func (ss *session[T]) takeNext() (T, error) {
	var zero T
	sig, err := ss.take()
	if err != nil {
		return zero, err
	}
	if sig.Kind != stream.OnNext {
		return zero, ss.failf("expected onNext(); actual: %s", sig)
	}
	return sig.Value, nil
}

func (ss *session[T]) takeError() (stream.Signal[T], error) {
	sig, err := ss.take()
	if err != nil {
		return sig, err
	}
	if sig.Kind != stream.OnError {
		return sig, ss.failf("expected onError(); actual: %s", sig)
	}
	return sig, nil
}

func (ss *session[T]) consumed(sig stream.Signal[T]) {
	if sig.IsTerminal() {
		ss.done = true
	}
}

// quiet reports the first signal seen within d, advancing virtual time
// rather than waiting when possible
func (ss *session[T]) quiet(d time.Duration) (stream.Signal[T], bool, error) {
	if ss.virtual == nil {
		sig, ok, err := ss.rec.quiet(ss.ctx, d)
		if err != nil {
			return sig, false, ss.waitFailed(err)
		}
		return sig, ok, nil
	}
	if sig, ok := ss.rec.head(); ok {
		return sig, true, nil
	}
	ss.virtual.AdvanceTimeBy(d)
	sig, ok := ss.rec.head()
	return sig, ok, nil
}

func (ss *session[T]) await(d time.Duration) error {
	if ss.virtual != nil {
		if d <= 0 {
			ss.virtual.AdvanceTime()
			return nil
		}
		ss.virtual.AdvanceTimeBy(d)
		return nil
	}
	if d <= 0 {
		return nil
	}
	pause := time.NewTimer(d)
	defer pause.Stop()
	select {
	case <-pause.C:
		return nil
	case <-ss.ctx.Done():
		return ss.waitFailed(ss.ctx.Err())
	}
}

func (ss *session[T]) cancel() {
	ss.done = true
	if sub := ss.rec.subscription(); sub != nil {
		sub.Cancel()
	}
}

func (ss *session[T]) failf(format string, args ...any) error {
	return &AssertionError{
		Scenario: ss.name,
		Step:     ss.current,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (ss *session[T]) waitFailed(err error) error {
	msg := err.Error()
	if errors.Is(err, ErrTimeout) {
		msg = fmt.Sprintf("no signal within %s", ss.timeout)
	}
	return &AssertionError{
		Scenario: ss.name,
		Step:     ss.current,
		Message:  msg,
		Err:      err,
	}
}

func describe(name string, arg any) string {
	return fmt.Sprintf("%s(%v)", name, arg)
}
