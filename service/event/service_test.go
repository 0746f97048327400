package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestService_PublishSubscribe(t *testing.T) {
	service := New()
	defer service.Shutdown()
	ctx := context.Background()

	received := make(chan *Event, 4)
	service.Subscribe(func(e *Event) { received <- e })

	assert.NoError(t, service.Publish(ctx, Event{Kind: ProcessTerminated, PID: 0x10001}))
	assert.NoError(t, service.Publish(ctx, Event{Kind: PageEvicted, Addr: 0x20002, Tier: "working"}))

	first := waitEvent(t, received)
	assert.Equal(t, ProcessTerminated, first.Kind)
	assert.Equal(t, uint64(0x10001), first.PID)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := waitEvent(t, received)
	assert.Equal(t, PageEvicted, second.Kind)
	assert.Equal(t, "working", second.Tier)
}

func TestService_PublishWithoutSubscriberDrops(t *testing.T) {
	service := New()
	for i := 0; i < 1000; i++ {
		assert.NoError(t, service.Publish(context.Background(), Event{Kind: DeadlineMissed}))
	}
}

func waitEvent(t *testing.T, ch chan *Event) *Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}
