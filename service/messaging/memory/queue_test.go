package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type lifecycleEvent struct {
	Kind string
	PID  uint64
}

func TestQueue_PublishConsumeAck(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[lifecycleEvent](config)
	ctx := context.Background()

	event := lifecycleEvent{Kind: "terminated", PID: 0x10001}
	err := queue.Publish(ctx, &event)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, event, *message.T())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack(), "double ack has to fail")
}

func TestQueue_NackRetries(t *testing.T) {
	config := Config{MaxRetries: 2, RetryDelay: 5 * time.Millisecond, DeadLetter: true, Buffer: 8}
	queue := NewQueue[lifecycleEvent](config)
	ctx := context.Background()

	err := queue.Publish(ctx, &lifecycleEvent{Kind: "deadline-missed", PID: 0x20002})
	assert.NoError(t, err)

	// Exhaust the retry budget; the message should land on the DLQ.
	for i := 0; i <= config.MaxRetries; i++ {
		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		message, err := queue.Consume(waitCtx)
		cancel()
		assert.NoError(t, err)
		assert.NoError(t, message.Nack(assert.AnError))
	}
	assert.Equal(t, 1, queue.DLQSize())
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ConsumeHonoursContext(t *testing.T) {
	queue := NewQueue[lifecycleEvent](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
