package stream_test

import (
	"context"
	"testing"
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/stretchr/testify/assert"

	"github.com/kode4food/streamtest/pkg/stream"
)

func TestFromTopic(t *testing.T) {
	top := caravan.NewTopic[string]()
	prod := top.NewProducer()
	defer prod.Close()

	r := newRecorder[string](stream.Unbounded)
	stream.Take(stream.FromTopic(top), 3).Subscribe(context.Background(), r)

	message.Send(prod, "a")
	message.Send(prod, "b")
	message.Send(prod, "c")

	assert.Eventually(t, func() bool {
		return len(r.kinds()) == 5
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, r.values())
	assert.Equal(t, stream.OnComplete, r.last().Kind)
}

func TestFromTopicContextDone(t *testing.T) {
	top := caravan.NewTopic[int]()
	ctx, cancel := context.WithCancel(context.Background())

	r := newRecorder[int](stream.Unbounded)
	stream.FromTopic(top).Subscribe(ctx, r)
	cancel()

	assert.Eventually(t, func() bool {
		return r.last().Kind == stream.OnError
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, r.last().Err, context.Canceled)
}

func TestFromTopicCancelIsSilent(t *testing.T) {
	top := caravan.NewTopic[int]()
	prod := top.NewProducer()
	defer prod.Close()

	r := newRecorder[int](1)
	stream.FromTopic(top).Subscribe(context.Background(), r)
	message.Send(prod, 1)

	assert.Eventually(t, func() bool {
		return len(r.values()) == 1
	}, time.Second, 5*time.Millisecond)

	r.cancel()
	message.Send(prod, 2)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []int{1}, r.values())
	assert.Equal(t, []stream.SignalKind{
		stream.OnSubscribe, stream.OnNext,
	}, r.kinds())
}
