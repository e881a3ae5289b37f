package verify

import (
	"time"

	"github.com/stretchr/testify/assert"
)

// Assertions check what a verified sequence dropped or discarded, and how
// long the verification took. Each method reports failures to the testing
// value the assertions were created with and returns the receiver
type Assertions struct {
	t             assert.TestingT
	dropped       []any
	droppedErrors []error
	discarded     []any
	elapsed       time.Duration
}

func newAssertions(
	t assert.TestingT, inc *incidents, elapsed time.Duration,
) *Assertions {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	return &Assertions{
		t:             t,
		dropped:       append([]any(nil), inc.dropped...),
		droppedErrors: append([]error(nil), inc.droppedErrors...),
		discarded:     append([]any(nil), inc.discarded...),
		elapsed:       elapsed,
	}
}

// HasDroppedElements asserts that at least one value was dropped
func (a *Assertions) HasDroppedElements() *Assertions {
	a.helper()
	assert.NotEmpty(a.t, a.dropped, "expected dropped elements")
	return a
}

// HasNotDroppedElements asserts that no value was dropped
func (a *Assertions) HasNotDroppedElements() *Assertions {
	a.helper()
	assert.Empty(a.t, a.dropped, "expected no dropped elements")
	return a
}

// HasDropped asserts that every one of vals was dropped
func (a *Assertions) HasDropped(vals ...any) *Assertions {
	a.helper()
	assert.Subset(a.t, a.dropped, vals, "expected dropped elements")
	return a
}

// HasDroppedExactly asserts that the dropped values are exactly vals, in
// any order
func (a *Assertions) HasDroppedExactly(vals ...any) *Assertions {
	a.helper()
	assert.ElementsMatch(a.t, vals, a.dropped, "expected dropped elements")
	return a
}

// HasDroppedErrors asserts that exactly n errors were dropped
func (a *Assertions) HasDroppedErrors(n int) *Assertions {
	a.helper()
	assert.Len(a.t, a.droppedErrors, n, "expected dropped errors")
	return a
}

// HasNotDroppedErrors asserts that no error was dropped
func (a *Assertions) HasNotDroppedErrors() *Assertions {
	a.helper()
	assert.Empty(a.t, a.droppedErrors, "expected no dropped errors")
	return a
}

// HasDiscardedElements asserts that at least one value was discarded
func (a *Assertions) HasDiscardedElements() *Assertions {
	a.helper()
	assert.NotEmpty(a.t, a.discarded, "expected discarded elements")
	return a
}

// HasNotDiscardedElements asserts that no value was discarded
func (a *Assertions) HasNotDiscardedElements() *Assertions {
	a.helper()
	assert.Empty(a.t, a.discarded, "expected no discarded elements")
	return a
}

// HasDiscarded asserts that every one of vals was discarded
func (a *Assertions) HasDiscarded(vals ...any) *Assertions {
	a.helper()
	assert.Subset(a.t, a.discarded, vals, "expected discarded elements")
	return a
}

// HasDiscardedExactly asserts that the discarded values are exactly vals,
// in any order
func (a *Assertions) HasDiscardedExactly(vals ...any) *Assertions {
	a.helper()
	assert.ElementsMatch(a.t, vals, a.discarded,
		"expected discarded elements",
	)
	return a
}

// TookLessThan asserts that verification ran for less than d
func (a *Assertions) TookLessThan(d time.Duration) *Assertions {
	a.helper()
	assert.Less(a.t, a.elapsed, d, "verification took too long")
	return a
}

// TookMoreThan asserts that verification ran for at least d
func (a *Assertions) TookMoreThan(d time.Duration) *Assertions {
	a.helper()
	assert.GreaterOrEqual(a.t, a.elapsed, d, "verification was too fast")
	return a
}

// Elapsed returns the real time the verification took
func (a *Assertions) Elapsed() time.Duration {
	return a.elapsed
}

func (a *Assertions) helper() {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
}
