package scenario

import (
	"context"
	"log/slog"
	"time"

	"github.com/kode4food/streamtest/pkg/log"
)

type (
	// Runner compiles and verifies scenarios, sharing one script registry
	Runner struct {
		scripts *Registry
		timeout time.Duration
	}

	// Result is the outcome of running one scenario
	Result struct {
		Name    string        `json:"name"`
		File    string        `json:"file"`
		Passed  bool          `json:"passed"`
		Elapsed time.Duration `json:"elapsed"`
		Error   string        `json:"error,omitempty"`
		Err     error         `json:"-"`
	}
)

// NewRunner creates a runner whose scenarios wait at most timeout for each
// signal unless they set their own timeout
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{
		scripts: NewRegistry(),
		timeout: timeout,
	}
}

// Run compiles and verifies sc. Compilation failures are reported in the
// result like verification failures
func (r *Runner) Run(ctx context.Context, sc *Scenario) *Result {
	res := &Result{
		Name: sc.Name,
		File: sc.File,
	}

	v, err := sc.Compile(r.scripts, r.timeout)
	if err == nil {
		res.Elapsed, err = v.VerifyErr(ctx)
	}
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		slog.Debug("Scenario failed",
			log.Scenario(sc.Name),
			log.Error(err))
		return res
	}

	res.Passed = true
	slog.Debug("Scenario passed",
		log.Scenario(sc.Name),
		slog.Duration("elapsed", res.Elapsed))
	return res
}
