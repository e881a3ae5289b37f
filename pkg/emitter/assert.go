package emitter

import (
	"github.com/stretchr/testify/assert"
)

type tHelper interface {
	Helper()
}

// AssertSubscribers asserts that exactly n subscribers are registered
func (e *Emitter[T]) AssertSubscribers(t assert.TestingT, n int) *Emitter[T] {
	helper(t)
	assert.Equal(t, n, e.SubscriberCount(), "unexpected subscriber count")
	return e
}

// AssertNoSubscribers asserts that no subscriber is registered
func (e *Emitter[T]) AssertNoSubscribers(t assert.TestingT) *Emitter[T] {
	helper(t)
	return e.AssertSubscribers(t, 0)
}

// AssertWasSubscribed asserts that something subscribed at least once
func (e *Emitter[T]) AssertWasSubscribed(t assert.TestingT) *Emitter[T] {
	helper(t)
	assert.True(t, e.WasSubscribed(), "expected a subscription")
	return e
}

// AssertWasNotSubscribed asserts that nothing ever subscribed
func (e *Emitter[T]) AssertWasNotSubscribed(t assert.TestingT) *Emitter[T] {
	helper(t)
	assert.False(t, e.WasSubscribed(), "expected no subscription")
	return e
}

// AssertWasRequested asserts that some subscriber requested values
func (e *Emitter[T]) AssertWasRequested(t assert.TestingT) *Emitter[T] {
	helper(t)
	assert.True(t, e.WasRequested(), "expected a request")
	return e
}

// AssertWasNotRequested asserts that no subscriber requested values
func (e *Emitter[T]) AssertWasNotRequested(t assert.TestingT) *Emitter[T] {
	helper(t)
	assert.False(t, e.WasRequested(), "expected no request")
	return e
}

// AssertWasCancelled asserts that some subscriber cancelled
func (e *Emitter[T]) AssertWasCancelled(t assert.TestingT) *Emitter[T] {
	helper(t)
	assert.True(t, e.WasCancelled(), "expected a cancellation")
	return e
}

// AssertWasNotCancelled asserts that no subscriber cancelled
func (e *Emitter[T]) AssertWasNotCancelled(t assert.TestingT) *Emitter[T] {
	helper(t)
	assert.False(t, e.WasCancelled(), "expected no cancellation")
	return e
}

// AssertMinRequested asserts that every registered subscriber has at least
// n values of outstanding demand
func (e *Emitter[T]) AssertMinRequested(
	t assert.TestingT, n int64,
) *Emitter[T] {
	helper(t)
	for _, sub := range e.snapshot() {
		assert.GreaterOrEqual(t, sub.outstanding(), n,
			"outstanding demand below minimum",
		)
	}
	return e
}

// AssertMaxRequested asserts that no registered subscriber has more than n
// values of outstanding demand
func (e *Emitter[T]) AssertMaxRequested(
	t assert.TestingT, n int64,
) *Emitter[T] {
	helper(t)
	for _, sub := range e.snapshot() {
		assert.LessOrEqual(t, sub.outstanding(), n,
			"outstanding demand above maximum",
		)
	}
	return e
}

func helper(t assert.TestingT) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
}
