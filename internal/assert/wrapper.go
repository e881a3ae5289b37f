package assert

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/streamtest/internal/config"
	"github.com/kode4food/streamtest/internal/scenario"
	"github.com/kode4food/streamtest/pkg/verify"
)

// Wrapper wraps testify assertions with streamtest-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus streamtest-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    assert.New(t),
	}
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.Timeout > 0)
	w.True(cfg.Parallel > 0 && cfg.Parallel <= config.MaxParallel)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// ScenarioValid asserts that a scenario passes validation
func (w *Wrapper) ScenarioValid(sc *scenario.Scenario) {
	w.Helper()
	w.NoError(sc.Validate())
	w.NotEmpty(sc.Name)
	w.NotNil(sc.Source)
	w.NotEmpty(sc.Steps)
}

// ScenarioInvalid asserts that a scenario fails validation with target
func (w *Wrapper) ScenarioInvalid(sc *scenario.Scenario, target error) error {
	w.Helper()
	err := sc.Validate()
	w.ErrorIs(err, target)
	return err
}

// ResultPassed asserts that a run result passed
func (w *Wrapper) ResultPassed(res *scenario.Result) {
	w.Helper()
	w.True(res.Passed, "scenario %q failed: %s", res.Name, res.Error)
	w.Empty(res.Error)
	w.NoError(res.Err)
}

// ResultFailed asserts that a run result failed and returns its
// assertion error when there is one
func (w *Wrapper) ResultFailed(
	res *scenario.Result,
) *verify.AssertionError {
	w.Helper()
	w.False(res.Passed, "scenario %q should have failed", res.Name)
	w.NotEmpty(res.Error)
	var ae *verify.AssertionError
	if errors.As(res.Err, &ae) {
		return ae
	}
	return nil
}

// AssertionFailure asserts that err is an assertion error raised by step
func (w *Wrapper) AssertionFailure(
	err error, step string,
) *verify.AssertionError {
	w.Helper()
	var ae *verify.AssertionError
	if !w.ErrorAs(err, &ae) {
		return nil
	}
	w.Equal(step, ae.Step)
	return ae
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}
