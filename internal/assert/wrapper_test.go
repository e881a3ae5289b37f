package assert

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kode4food/streamtest/internal/config"
	"github.com/kode4food/streamtest/internal/scenario"
	"github.com/kode4food/streamtest/pkg/stream"
	"github.com/kode4food/streamtest/pkg/verify"
)

func TestNew(t *testing.T) {
	wrapper := New(t)

	if wrapper.T != t {
		t.Error("Wrapper.T should be set to the testing.T instance")
	}
	if wrapper.Assertions == nil {
		t.Error("Wrapper.Assertions should be initialized")
	}
	if wrapper.Require == nil {
		t.Error("Wrapper.Require should be initialized")
	}
}

func TestConfigHelpers(t *testing.T) {
	w := New(t)
	w.ConfigValid(config.NewDefaultConfig())

	cfg := config.NewDefaultConfig()
	cfg.Parallel = 0
	w.ConfigInvalid(cfg, "parallel")
}

func TestScenarioHelpers(t *testing.T) {
	w := New(t)

	sc := &scenario.Scenario{
		Name:   "valid",
		Source: &scenario.Source{Just: []any{1}},
		Steps: []*scenario.Step{
			{ExpectNext: []any{1}},
			{ExpectComplete: true},
		},
	}
	w.ScenarioValid(sc)

	err := w.ScenarioInvalid(&scenario.Scenario{
		Source: sc.Source,
		Steps:  sc.Steps,
	}, scenario.ErrNameRequired)
	w.Error(err)
}

func TestResultHelpers(t *testing.T) {
	w := New(t)
	r := scenario.NewRunner(time.Second)

	w.ResultPassed(r.Run(context.Background(), &scenario.Scenario{
		Name:   "passes",
		Source: &scenario.Source{Just: []any{1, 2}},
		Steps: []*scenario.Step{
			{ExpectNext: []any{1, 2}},
			{ExpectComplete: true},
		},
	}))

	ae := w.ResultFailed(r.Run(context.Background(), &scenario.Scenario{
		Name:   "fails",
		Source: &scenario.Source{Just: []any{1}},
		Steps: []*scenario.Step{
			{ExpectNext: []any{2}},
			{ExpectComplete: true},
		},
	}))
	w.Require.NotNil(ae)
	w.Equal("fails", ae.Scenario)
}

func TestAssertionFailure(t *testing.T) {
	w := New(t)
	_, err := verify.Create(stream.Just(1)).
		ExpectNext(2).
		ExpectComplete().
		VerifyErr(context.Background())

	ae := w.AssertionFailure(err, "expectNext(2)")
	w.Require.NotNil(ae)
	w.Contains(ae.Message, "1")

	wrapped := &verify.AssertionError{Step: "x", Err: errors.New("inner")}
	w.Equal("x", w.AssertionFailure(wrapped, "x").Step)
}

func TestEventually(t *testing.T) {
	w := New(t)
	var calls atomic.Int32
	w.Eventually(func() bool {
		return calls.Add(1) >= 3
	}, time.Second, "condition never held")
	w.GreaterOrEqual(calls.Load(), int32(3))
}
