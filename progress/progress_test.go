package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	tracker := &Progress{}
	tracker.Update(Delta{Ticks: 1, Dispatches: 2})
	tracker.Update(Delta{Ticks: 1, Completed: 1, Evictions: 3})

	snapshot := tracker.Snapshot()
	assert.Equal(t, 2, snapshot.Ticks)
	assert.Equal(t, 2, snapshot.Dispatches)
	assert.Equal(t, 1, snapshot.Completed)
	assert.Equal(t, 3, snapshot.Evictions)
}

func TestProgress_NilReceiver(t *testing.T) {
	var tracker *Progress
	assert.NotPanics(t, func() {
		tracker.Update(Delta{Ticks: 1})
	})
}

func TestProgress_OnChange(t *testing.T) {
	tracker := &Progress{}
	var observed []Progress
	tracker.OnChange(func(p Progress) {
		observed = append(observed, p)
	})

	tracker.Update(Delta{Ticks: 1})
	tracker.Update(Delta{Ticks: 1, Faulted: 1})

	if assert.Equal(t, 2, len(observed)) {
		assert.Equal(t, 1, observed[0].Ticks)
		assert.Equal(t, 2, observed[1].Ticks)
		assert.Equal(t, 1, observed[1].Faulted)
	}
}

func TestProgress_ContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	tracker := &Progress{}
	ctx := WithProgress(context.Background(), tracker)
	assert.Same(t, tracker, FromContext(ctx))
}
