package emitter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/streamtest/pkg/emitter"
	"github.com/kode4food/streamtest/pkg/stream"
)

type sink[T any] struct {
	sub     stream.Subscription
	initial int64
	values  []T
	err     error
	ends    int
}

func subscribe[T any](e *emitter.Emitter[T], initial int64) *sink[T] {
	s := &sink[T]{initial: initial}
	e.Subscribe(context.Background(), s)
	return s
}

func (s *sink[T]) OnSubscribe(sub stream.Subscription) {
	s.sub = sub
	if s.initial > 0 {
		sub.Request(s.initial)
	}
}

func (s *sink[T]) OnNext(v T) {
	s.values = append(s.values, v)
}

func (s *sink[T]) OnError(err error) {
	s.err = err
	s.ends++
}

func (s *sink[T]) OnComplete() {
	s.ends++
}

func TestEmitterDeliversOnDemand(t *testing.T) {
	e := emitter.Create[string]()
	e.AssertWasNotSubscribed(t).AssertNoSubscribers(t)

	s := subscribe(e, 2)
	e.AssertWasSubscribed(t).
		AssertSubscribers(t, 1).
		AssertWasRequested(t).
		AssertMinRequested(t, 2).
		AssertMaxRequested(t, 2)

	e.Next("a", "b")
	assert.Equal(t, []string{"a", "b"}, s.values)
	e.AssertMaxRequested(t, 0)

	e.Complete()
	assert.Equal(t, 1, s.ends)
	e.AssertNoSubscribers(t)
}

func TestEmitterOverflow(t *testing.T) {
	e := emitter.Create[int]()
	s := subscribe(e, 1)
	e.Next(1, 2)

	assert.Equal(t, []int{1}, s.values)
	assert.ErrorIs(t, s.err, stream.ErrOverflow)
	e.AssertNoSubscribers(t)
}

func TestEmitterRequestOverflowViolation(t *testing.T) {
	e := emitter.CreateNoncompliant[int](emitter.RequestOverflow)
	s := subscribe(e, 0)
	e.Next(1, 2, 3)
	assert.Equal(t, []int{1, 2, 3}, s.values)
	assert.NoError(t, s.err)
	e.AssertWasNotRequested(t)
}

func TestEmitterRejectsNil(t *testing.T) {
	e := emitter.Create[*int]()
	subscribe(e, stream.Unbounded)
	assert.PanicsWithValue(t, emitter.ErrNilValue, func() {
		e.Next(nil)
	})

	lax := emitter.CreateNoncompliant[*int](emitter.AllowNil)
	s := subscribe(lax, stream.Unbounded)
	lax.Next(nil)
	require.Len(t, s.values, 1)
	assert.Nil(t, s.values[0])
}

func TestEmitterLateSubscriberSeesTerminal(t *testing.T) {
	boom := errors.New("boom")
	e := emitter.Create[int]()
	e.Error(boom)

	s := subscribe(e, 0)
	assert.Equal(t, boom, s.err)
	assert.Equal(t, 1, s.ends)
	e.AssertNoSubscribers(t)
}

func TestEmitterCleanupOnTerminateViolation(t *testing.T) {
	e := emitter.CreateNoncompliant[int](emitter.CleanupOnTerminate)
	s := subscribe(e, stream.Unbounded)
	e.Complete().Complete().Next(5)

	assert.Equal(t, 2, s.ends)
	assert.Equal(t, []int{5}, s.values)
	e.AssertSubscribers(t, 1)
}

func TestEmitterCancellation(t *testing.T) {
	e := emitter.Create[int]()
	s := subscribe(e, stream.Unbounded)
	s.sub.Cancel()
	e.Next(1)
	assert.Empty(t, s.values)
	e.AssertWasCancelled(t).AssertNoSubscribers(t)

	d := emitter.CreateNoncompliant[int](emitter.DeferCancellation)
	ds := subscribe(d, stream.Unbounded)
	d.AssertWasNotCancelled(t)
	ds.sub.Cancel()
	d.Next(1)
	assert.Equal(t, []int{1}, ds.values)
	d.AssertWasCancelled(t).AssertSubscribers(t, 1)
}

func TestEmitterInvalidRequest(t *testing.T) {
	e := emitter.Create[int]()
	s := subscribe(e, 0)
	s.sub.Request(-1)
	assert.ErrorIs(t, s.err, stream.ErrInvalidRequest)
	e.AssertNoSubscribers(t)
}

func TestEmitAndViolationNames(t *testing.T) {
	e := emitter.Create[int]()
	s := subscribe(e, stream.Unbounded)
	e.Emit(1, 2, 3)
	assert.Equal(t, []int{1, 2, 3}, s.values)
	assert.Equal(t, 1, s.ends)

	assert.Equal(t, "allow_nil", emitter.AllowNil.String())
	assert.Equal(t, "violation(99)", emitter.Violation(99).String())

	assert.Empty(t, e.Violations())
	nc := emitter.CreateNoncompliant[int](
		emitter.DeferCancellation, emitter.RequestOverflow,
		emitter.DeferCancellation,
	)
	assert.Equal(t, []emitter.Violation{
		emitter.RequestOverflow, emitter.DeferCancellation,
	}, nc.Violations())
}
