// Package emitter provides a publisher driven directly by a test: values
// and terminal signals are pushed on demand, and the publisher records how
// its subscribers behaved. Noncompliant emitters can be told to break
// specific protocol rules to exercise downstream error handling
package emitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/kode4food/streamtest/pkg/log"
	"github.com/kode4food/streamtest/pkg/stream"
	"github.com/kode4food/streamtest/pkg/util"
)

type (
	// Emitter is a manually driven stream.Publisher
	Emitter[T any] struct {
		mu         sync.Mutex
		violations util.Set[Violation]
		subs       []*subscription[T]
		terminal   *stream.Signal[T]
		subscribed bool
		requested  bool
		cancelled  bool
	}

	// Violation names a protocol rule that a noncompliant emitter breaks
	Violation uint8

	subscription[T any] struct {
		parent    *Emitter[T]
		down      stream.Subscriber[T]
		requested int64
		cancelled bool
	}
)

const (
	// RequestOverflow emits values even when subscribers have not
	// requested them
	RequestOverflow Violation = iota + 1

	// AllowNil emits nil values instead of rejecting them
	AllowNil

	// CleanupOnTerminate keeps subscribers registered after a terminal
	// signal, so later values and terminal signals still reach them
	CleanupOnTerminate

	// DeferCancellation records cancellation but keeps delivering signals
	// to the cancelled subscriber
	DeferCancellation
)

var ErrNilValue = errors.New("emitted value must not be nil")

var violationNames = map[Violation]string{
	RequestOverflow:    "request_overflow",
	AllowNil:           "allow_nil",
	CleanupOnTerminate: "cleanup_on_terminate",
	DeferCancellation:  "defer_cancellation",
}

var _ stream.Publisher[any] = (*Emitter[any])(nil)

// Create returns an emitter that enforces the sequence protocol
func Create[T any]() *Emitter[T] {
	return &Emitter[T]{violations: util.Set[Violation]{}}
}

// CreateNoncompliant returns an emitter that breaks the named rules
func CreateNoncompliant[T any](v Violation, more ...Violation) *Emitter[T] {
	e := &Emitter[T]{
		violations: util.SetOf(append([]Violation{v}, more...)...),
	}
	slog.Debug("Noncompliant emitter created",
		slog.Any("violations", e.Violations()))
	return e
}

// Violations returns the rules this emitter breaks, in declaration order
func (e *Emitter[T]) Violations() []Violation {
	return util.Sorted(e.violations)
}

func (v Violation) String() string {
	if name, ok := violationNames[v]; ok {
		return name
	}
	return fmt.Sprintf("violation(%d)", v)
}

// Subscribe registers s. A subscriber that arrives after termination
// receives the terminal signal immediately
func (e *Emitter[T]) Subscribe(_ context.Context, s stream.Subscriber[T]) {
	sub := &subscription[T]{parent: e, down: s}
	e.mu.Lock()
	e.subscribed = true
	term := e.terminal
	if term == nil || e.violates(CleanupOnTerminate) {
		e.subs = append(e.subs, sub)
	}
	e.mu.Unlock()

	s.OnSubscribe(sub)
	if term != nil {
		term.Deliver(s)
	}
}

// Next emits each value to every subscriber, in order
func (e *Emitter[T]) Next(v T, more ...T) *Emitter[T] {
	e.emit(v)
	for _, m := range more {
		e.emit(m)
	}
	return e
}

// Emit emits vals and then completes
func (e *Emitter[T]) Emit(vals ...T) *Emitter[T] {
	for _, v := range vals {
		e.emit(v)
	}
	return e.Complete()
}

// Complete terminates every subscriber successfully
func (e *Emitter[T]) Complete() *Emitter[T] {
	e.terminate(stream.CompleteSignal[T]())
	return e
}

// Error terminates every subscriber with err
func (e *Emitter[T]) Error(err error) *Emitter[T] {
	e.terminate(stream.ErrorSignal[T](err))
	return e
}

// SubscriberCount returns the number of registered subscribers
func (e *Emitter[T]) SubscriberCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// WasSubscribed reports whether anything ever subscribed
func (e *Emitter[T]) WasSubscribed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subscribed
}

// WasRequested reports whether any subscriber ever requested values
func (e *Emitter[T]) WasRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requested
}

// WasCancelled reports whether any subscriber ever cancelled
func (e *Emitter[T]) WasCancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

func (e *Emitter[T]) emit(v T) {
	if !e.violates(AllowNil) && isNil(v) {
		panic(ErrNilValue)
	}
	for _, sub := range e.snapshot() {
		sub.emit(v)
	}
}

func (e *Emitter[T]) terminate(sig stream.Signal[T]) {
	e.mu.Lock()
	e.terminal = &sig
	subs := e.subs
	if !e.violates(CleanupOnTerminate) {
		e.subs = nil
	}
	e.mu.Unlock()

	slog.Debug("Emitter terminated", log.Signal(sig.Kind))
	for _, sub := range subs {
		if sub.active() {
			sig.Deliver(sub.down)
		}
	}
}

func (e *Emitter[T]) snapshot() []*subscription[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*subscription[T](nil), e.subs...)
}

// The violation set is fixed at construction, so violates takes no lock
func (e *Emitter[T]) violates(v Violation) bool {
	return e.violations.Contains(v)
}

// remove must be called with e.mu held
func (e *Emitter[T]) remove(sub *subscription[T]) {
	for i, s := range e.subs {
		if s == sub {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

func (s *subscription[T]) Request(n int64) {
	e := s.parent
	e.mu.Lock()
	e.requested = true
	if n <= 0 {
		e.remove(s)
		e.mu.Unlock()
		s.down.OnError(fmt.Errorf("%w: %d", stream.ErrInvalidRequest, n))
		return
	}
	s.requested = stream.AddDemand(s.requested, n)
	e.mu.Unlock()
}

func (s *subscription[T]) Cancel() {
	e := s.parent
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = true
	s.cancelled = true
	if !e.violates(DeferCancellation) {
		e.remove(s)
	}
}

func (s *subscription[T]) emit(v T) {
	e := s.parent
	e.mu.Lock()
	if s.cancelled && !e.violates(DeferCancellation) {
		e.mu.Unlock()
		return
	}
	switch {
	case s.requested == stream.Unbounded:
	case s.requested > 0:
		s.requested--
	case !e.violates(RequestOverflow):
		e.remove(s)
		e.mu.Unlock()
		s.down.OnError(fmt.Errorf("%w: %v", stream.ErrOverflow, v))
		return
	}
	e.mu.Unlock()
	s.down.OnNext(v)
}

func (s *subscription[T]) active() bool {
	e := s.parent
	e.mu.Lock()
	defer e.mu.Unlock()
	return !s.cancelled || e.violates(DeferCancellation)
}

func (s *subscription[T]) outstanding() int64 {
	e := s.parent
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.requested
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
