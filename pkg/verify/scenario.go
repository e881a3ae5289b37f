package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kode4food/streamtest/pkg/log"
	"github.com/kode4food/streamtest/pkg/match"
	"github.com/kode4food/streamtest/pkg/stream"
	"github.com/kode4food/streamtest/pkg/timing"
)

type (
	// Scenario is an ordered list of expectations about one subscription to
	// a sequence. Builder methods append a step and return the Scenario
	Scenario[T any] struct {
		supplier func() stream.Publisher[T]
		opts     *options
		steps    []*step[T]
	}

	step[T any] struct {
		desc     string
		terminal bool
		run      func(*session[T]) error
	}

	tHelper interface {
		Helper()
	}
)

// Create builds a scenario around an existing sequence
func Create[T any](pub stream.Publisher[T], opts ...Option) *Scenario[T] {
	return CreateFrom(func() stream.Publisher[T] {
		return pub
	}, opts...)
}

// CreateFrom builds a scenario around a supplier that is called once per
// verification
func CreateFrom[T any](
	supplier func() stream.Publisher[T], opts ...Option,
) *Scenario[T] {
	return &Scenario[T]{
		supplier: supplier,
		opts:     newOptions(opts),
	}
}

// WithVirtualTime builds a scenario whose sequence sees a fresh virtual
// clock for each verification. The supplier is called after the clock is in
// place, so time-based operators built inside it use virtual time
func WithVirtualTime[T any](
	supplier func() stream.Publisher[T], opts ...Option,
) *Scenario[T] {
	res := CreateFrom(supplier, opts...)
	res.opts.fresh = res.opts.virtual == nil
	return res
}

// ExpectSubscription expects the subscription signal
func (s *Scenario[T]) ExpectSubscription() *Scenario[T] {
	return s.ConsumeSubscriptionWith(nil)
}

// ConsumeSubscriptionWith expects the subscription signal and passes the
// subscription to fn
func (s *Scenario[T]) ConsumeSubscriptionWith(
	fn func(stream.Subscription) error,
) *Scenario[T] {
	return s.add("expectSubscription", func(ss *session[T]) error {
		sig, err := ss.takeRaw()
		if err != nil {
			return err
		}
		if sig.Kind != stream.OnSubscribe {
			return ss.failf("expected onSubscribe(); actual: %s", sig)
		}
		if fn != nil {
			return fn(sig.Subscription)
		}
		return nil
	})
}

// ExpectNext expects each of vals, in order, as individual values
func (s *Scenario[T]) ExpectNext(vals ...T) *Scenario[T] {
	for _, v := range vals {
		s.add(describe("expectNext", v), func(ss *session[T]) error {
			got, err := ss.takeNext()
			if err != nil {
				return err
			}
			if !match.Equal(v)(got) {
				return ss.failf(
					"expected value: %v; actual value: %v", v, got,
				)
			}
			return nil
		})
	}
	return s
}

// ExpectNextSequence expects the elements of vals, in order
func (s *Scenario[T]) ExpectNextSequence(vals []T) *Scenario[T] {
	return s.add(describe("expectNextSequence", vals),
		func(ss *session[T]) error {
			for i, v := range vals {
				got, err := ss.takeNext()
				if err != nil {
					return err
				}
				if !match.Equal(v)(got) {
					return ss.failf(
						"expected value at index %d: %v; actual value: %v",
						i, v, got,
					)
				}
			}
			return nil
		},
	)
}

// ExpectNextCount expects n values without inspecting them
func (s *Scenario[T]) ExpectNextCount(n int64) *Scenario[T] {
	return s.add(describe("expectNextCount", n), func(ss *session[T]) error {
		for i := range n {
			sig, err := ss.take()
			if err != nil {
				return err
			}
			if sig.Kind != stream.OnNext {
				return ss.failf(
					"expected %d values; received %d before %s", n, i, sig,
				)
			}
		}
		return nil
	})
}

// ExpectNextMatches expects a value accepted by pred
func (s *Scenario[T]) ExpectNextMatches(pred match.Predicate[T]) *Scenario[T] {
	return s.add("expectNextMatches", func(ss *session[T]) error {
		got, err := ss.takeNext()
		if err != nil {
			return err
		}
		if !pred(got) {
			return ss.failf("predicate failed on value: %v", got)
		}
		return nil
	})
}

// ConsumeNextWith expects a value and passes it to fn. An error returned
// by fn ends the verification unchanged
func (s *Scenario[T]) ConsumeNextWith(fn func(T) error) *Scenario[T] {
	return s.add("consumeNextWith", func(ss *session[T]) error {
		got, err := ss.takeNext()
		if err != nil {
			return err
		}
		return fn(got)
	})
}

// AssertNext expects a value and passes it to fn, which typically makes
// testify assertions against it
func (s *Scenario[T]) AssertNext(fn func(T) error) *Scenario[T] {
	return s.ConsumeNextWith(fn)
}

// ThenConsumeWhile consumes values for as long as pred accepts them,
// passing each to fn when it is not nil. The first rejected value or
// terminal signal is left for the following step
func (s *Scenario[T]) ThenConsumeWhile(
	pred match.Predicate[T], fn func(T) error,
) *Scenario[T] {
	return s.add("thenConsumeWhile", func(ss *session[T]) error {
		for {
			sig, err := ss.peek()
			if err != nil {
				return err
			}
			if sig.Kind != stream.OnNext || !pred(sig.Value) {
				return nil
			}
			ss.rec.pop()
			if fn == nil {
				continue
			}
			if err := fn(sig.Value); err != nil {
				return err
			}
		}
	})
}

// ExpectComplete expects successful termination
func (s *Scenario[T]) ExpectComplete() *Scenario[T] {
	return s.terminal("expectComplete", func(ss *session[T]) error {
		sig, err := ss.take()
		if err != nil {
			return err
		}
		if sig.Kind != stream.OnComplete {
			return ss.failf("expected onComplete(); actual: %s", sig)
		}
		return nil
	})
}

// ExpectError expects termination with any error
func (s *Scenario[T]) ExpectError() *Scenario[T] {
	return s.expectError("expectError", match.Any[error](), "")
}

// ExpectErrorMessage expects termination with an error whose message is
// exactly msg
func (s *Scenario[T]) ExpectErrorMessage(msg string) *Scenario[T] {
	return s.expectError(describe("expectErrorMessage", msg),
		func(err error) bool {
			return err.Error() == msg
		},
		"expected error message: "+msg,
	)
}

// ExpectErrorIs expects termination with an error wrapping target
func (s *Scenario[T]) ExpectErrorIs(target error) *Scenario[T] {
	return s.expectError(describe("expectErrorIs", target),
		match.ErrorIs(target),
		fmt.Sprintf("expected error wrapping: %v", target),
	)
}

// ExpectErrorMatches expects termination with an error accepted by pred
func (s *Scenario[T]) ExpectErrorMatches(
	pred match.Predicate[error],
) *Scenario[T] {
	return s.expectError("expectErrorMatches", pred, "predicate failed")
}

// ConsumeErrorWith expects termination with an error and passes it to fn
func (s *Scenario[T]) ConsumeErrorWith(fn func(error) error) *Scenario[T] {
	return s.terminal("consumeErrorWith", func(ss *session[T]) error {
		sig, err := ss.takeError()
		if err != nil {
			return err
		}
		return fn(sig.Err)
	})
}

// ExpectNoEvent expects no signal at all for d. An unconsumed subscription
// signal counts as an event
func (s *Scenario[T]) ExpectNoEvent(d time.Duration) *Scenario[T] {
	return s.add(describe("expectNoEvent", d), func(ss *session[T]) error {
		sig, ok, err := ss.quiet(d)
		if err != nil {
			return err
		}
		if ok {
			return ss.failf("expected no event; actual: %s", sig)
		}
		return nil
	})
}

// ThenAwait pauses for d, advancing the clock instead when verifying
// against virtual time
func (s *Scenario[T]) ThenAwait(d time.Duration) *Scenario[T] {
	return s.add(describe("thenAwait", d), func(ss *session[T]) error {
		return ss.await(d)
	})
}

// Then runs fn, typically to drive a manual emitter
func (s *Scenario[T]) Then(fn func() error) *Scenario[T] {
	return s.add("then", func(*session[T]) error {
		return fn()
	})
}

// ThenRequest requests n more values from the subscription
func (s *Scenario[T]) ThenRequest(n int64) *Scenario[T] {
	return s.add(describe("thenRequest", n), func(ss *session[T]) error {
		ss.rec.subscription().Request(n)
		return nil
	})
}

// ThenCancel cancels the subscription, ending the scenario
func (s *Scenario[T]) ThenCancel() *Scenario[T] {
	return s.terminal("thenCancel", func(ss *session[T]) error {
		ss.cancel()
		return nil
	})
}

// VerifyErr subscribes and checks every step in order. It returns the real
// time the verification took, and the first failure
func (s *Scenario[T]) VerifyErr(ctx context.Context) (time.Duration, error) {
	_, elapsed, err := s.verify(ctx)
	return elapsed, err
}

// Verify is VerifyErr that fails t on error
func (s *Scenario[T]) Verify(t require.TestingT) time.Duration {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	elapsed, err := s.VerifyErr(context.Background())
	require.NoError(t, err)
	return elapsed
}

// VerifyComplete expects completion and verifies
func (s *Scenario[T]) VerifyComplete(t require.TestingT) time.Duration {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return s.ExpectComplete().Verify(t)
}

// VerifyError expects an error and verifies
func (s *Scenario[T]) VerifyError(t require.TestingT) time.Duration {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return s.ExpectError().Verify(t)
}

// VerifyErrorMessage expects an error with the message msg and verifies
func (s *Scenario[T]) VerifyErrorMessage(
	t require.TestingT, msg string,
) time.Duration {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return s.ExpectErrorMessage(msg).Verify(t)
}

// VerifyErrorIs expects an error wrapping target and verifies
func (s *Scenario[T]) VerifyErrorIs(
	t require.TestingT, target error,
) time.Duration {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return s.ExpectErrorIs(target).Verify(t)
}

// VerifyErrorMatches expects an error accepted by pred and verifies
func (s *Scenario[T]) VerifyErrorMatches(
	t require.TestingT, pred match.Predicate[error],
) time.Duration {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return s.ExpectErrorMatches(pred).Verify(t)
}

// VerifyTimeout expects the sequence not to terminate within d, then
// cancels it and verifies. Values emitted meanwhile are ignored
func (s *Scenario[T]) VerifyTimeout(
	t require.TestingT, d time.Duration,
) time.Duration {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Greater(t, d, time.Duration(0), ErrInvalidTimeout.Error())
	return s.terminal(describe("expectTimeout", d),
		func(ss *session[T]) error {
			if err := ss.await(d); err != nil {
				return err
			}
			if sig, ok := ss.rec.terminal(); ok {
				return ss.failf("expected no termination; actual: %s", sig)
			}
			ss.cancel()
			return nil
		},
	).Verify(t)
}

// VerifyThenAssertThat verifies, failing t on error, and returns assertions
// about what the sequence dropped or discarded
func (s *Scenario[T]) VerifyThenAssertThat(t require.TestingT) *Assertions {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	inc, elapsed, err := s.verify(context.Background())
	require.NoError(t, err)
	return newAssertions(t, inc, elapsed)
}

// ErrorAs builds a predicate matching errors that wrap an E, for use with
// ExpectErrorMatches
func ErrorAs[E error]() match.Predicate[error] {
	return match.ErrorAs[E]()
}

func (s *Scenario[T]) verify(
	ctx context.Context,
) (*incidents, time.Duration, error) {
	inc := &incidents{}
	if len(s.steps) == 0 || !s.steps[len(s.steps)-1].terminal {
		return inc, 0, ErrIncompleteScenario
	}

	ss := s.newSession(ctx, inc)
	start := time.Now()
	err := ss.run(s.steps)
	return inc, time.Since(start), err
}

func (s *Scenario[T]) newSession(
	ctx context.Context, inc *incidents,
) *session[T] {
	ctx = stream.WithHooks(ctx, inc.hooks())
	virtual := s.opts.virtual
	if s.opts.fresh {
		virtual = timing.NewVirtual()
	}
	if virtual != nil {
		ctx = timing.WithScheduler(ctx, virtual)
	}
	return &session[T]{
		ctx:      ctx,
		name:     s.opts.name,
		timeout:  s.opts.timeout,
		virtual:  virtual,
		supplier: s.supplier,
		rec:      newRecorder[T](s.opts.initial, inc),
	}
}

func (s *Scenario[T]) add(desc string, run func(*session[T]) error) *Scenario[T] {
	s.steps = append(s.steps, &step[T]{desc: desc, run: run})
	return s
}

func (s *Scenario[T]) terminal(
	desc string, run func(*session[T]) error,
) *Scenario[T] {
	s.steps = append(s.steps, &step[T]{desc: desc, terminal: true, run: run})
	return s
}

func (s *Scenario[T]) expectError(
	desc string, pred match.Predicate[error], msg string,
) *Scenario[T] {
	return s.terminal(desc, func(ss *session[T]) error {
		sig, err := ss.takeError()
		if err != nil {
			return err
		}
		if !pred(sig.Err) {
			return ss.failf("%s; actual error: %v", msg, sig.Err)
		}
		return nil
	})
}

func logStep(name, desc string) {
	slog.Debug("Verifying step", log.Scenario(name), log.Step(desc))
}
