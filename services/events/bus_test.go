package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitFansOutToEveryListener(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(2)

	var mu sync.Mutex
	var seen []string

	for i := 0; i < 2; i++ {
		bus.Subscribe(func(e Event) {
			mu.Lock()
			seen = append(seen, e.Name)
			mu.Unlock()
			wg.Done()
		})
	}

	bus.Emit(TopicCompleted, map[string]interface{}{"user_id": uint(1)})
	wg.Wait()

	require.Len(t, seen, 2)
	assert.Equal(t, TopicCompleted, seen[0])
	assert.Equal(t, TopicCompleted, seen[1])
}

func TestListenerPanicDoesNotReachEmitter(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(func(Event) {
		panic("listener bug")
	})
	bus.Subscribe(func(Event) {
		close(done)
	})

	assert.NotPanics(t, func() {
		bus.Emit(CoinsAwarded, nil)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("healthy listener never ran")
	}
}

func TestEmitWithoutListenersIsNoOp(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Emit(WeekUnlocked, map[string]interface{}{"week_id": uint(3)})
	})
}
