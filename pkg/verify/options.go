package verify

import (
	"sync"
	"time"

	"github.com/kode4food/streamtest/pkg/stream"
	"github.com/kode4food/streamtest/pkg/timing"
)

type (
	// Option configures a Scenario
	Option func(*options)

	options struct {
		name    string
		initial int64
		timeout time.Duration
		virtual *timing.Virtual
		fresh   bool
	}
)

// DefaultTimeout bounds every wait for a signal unless overridden
const DefaultTimeout = 10 * time.Second

var defaultTimeout = struct {
	sync.RWMutex
	value time.Duration
}{value: DefaultTimeout}

// SetDefaultTimeout changes the timeout used by scenarios created without
// WithTimeout. Non-positive durations are ignored
func SetDefaultTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	defaultTimeout.Lock()
	defer defaultTimeout.Unlock()
	defaultTimeout.value = d
}

// ResetDefaultTimeout restores DefaultTimeout
func ResetDefaultTimeout() {
	defaultTimeout.Lock()
	defer defaultTimeout.Unlock()
	defaultTimeout.value = DefaultTimeout
}

// WithName labels the scenario in failures and logs
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithInitialRequest sets the demand requested on subscription. Zero
// requests nothing, leaving demand to ThenRequest steps
func WithInitialRequest(n int64) Option {
	return func(o *options) {
		o.initial = max(n, 0)
	}
}

// WithTimeout bounds every wait for a signal
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithScheduler verifies against the provided virtual scheduler, which the
// caller may also advance from Then steps
func WithScheduler(v *timing.Virtual) Option {
	return func(o *options) {
		o.virtual = v
	}
}

func newOptions(opts []Option) *options {
	defaultTimeout.RLock()
	res := &options{
		initial: stream.Unbounded,
		timeout: defaultTimeout.value,
	}
	defaultTimeout.RUnlock()
	for _, o := range opts {
		o(res)
	}
	return res
}
