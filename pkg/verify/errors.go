package verify

import (
	"errors"
	"fmt"
)

// AssertionError describes the first expectation that a sequence failed to
// meet
type AssertionError struct {
	Scenario string
	Step     string
	Message  string
	Err      error
}

var (
	ErrTimeout            = errors.New("timed out waiting for signal")
	ErrIncompleteScenario = errors.New(
		"scenario must end with a terminal expectation or a cancellation",
	)
	ErrInvalidTimeout = errors.New("timeout must be positive")
)

func (e *AssertionError) Error() string {
	if e.Scenario == "" {
		return fmt.Sprintf("%s: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Scenario, e.Step, e.Message)
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}
