package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/streamtest/pkg/log"
	"github.com/kode4food/streamtest/pkg/stream"
)

type errStub string

func TestScenario(t *testing.T) {
	assertAttrEqual(t, log.Scenario("foo-bar"), "scenario", "foo-bar")
}

func TestStep(t *testing.T) {
	assertAttrEqual(t, log.Step("expectNext(foo)"), "step", "expectNext(foo)")
}

func TestSignal(t *testing.T) {
	assertAttrEqual(t, log.Signal(stream.OnComplete), "signal", "onComplete")
}

func TestSubscription(t *testing.T) {
	attr := log.Subscription("sub-1")
	assertAttrEqual(t, attr, "subscription_id", "sub-1")
}

func TestPathAndValue(t *testing.T) {
	attr := log.Path([]string{"interval", "sub-1"})
	assert.Equal(t, "path", attr.Key)
	assert.Equal(t, []string{"interval", "sub-1"}, attr.Value.Any())

	attr = log.Value(42)
	assert.Equal(t, "value", attr.Key)
	assert.Equal(t, int64(42), attr.Value.Any())
}

func TestError(t *testing.T) {
	assertAttrEqual(t, log.Error(nil), "error", "")
	assertAttrEqual(t, log.Error(errStub("boom")), "error", "boom")
}

func TestErrorString(t *testing.T) {
	assertAttrEqual(t, log.ErrorString("badness"), "error", "badness")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
