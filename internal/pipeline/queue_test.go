package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueCapacityClamped(t *testing.T) {
	q := NewQueue(0)
	assert.Equal(t, 1, q.Cap())

	q = NewQueue(-5)
	assert.Equal(t, 1, q.Cap())
}

func TestQueueTryPushFull(t *testing.T) {
	q := NewQueue(2)
	require.True(t, q.TryPush(&Item{Seq: 0}))
	require.True(t, q.TryPush(&Item{Seq: 1}))

	// Full queue: push fails and leaves contents unchanged.
	assert.False(t, q.TryPush(&Item{Seq: 2}))
	assert.Equal(t, 2, q.Len())

	item, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, uint64(0), item.Seq)
}

func TestQueueTryPopEmpty(t *testing.T) {
	q := NewQueue(1)
	item, ok := q.TryPop()
	assert.False(t, ok)
	assert.Nil(t, item)
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(8)
	for i := 0; i < 5; i++ {
		require.True(t, q.TryPush(&Item{Seq: uint64(i)}))
	}
	for i := 0; i < 5; i++ {
		item, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, uint64(i), item.Seq)
	}
}

func TestQueueWaitPushUnblocksOnPop(t *testing.T) {
	q := NewQueue(1)
	require.True(t, q.TryPush(&Item{Seq: 0}))

	pushed := make(chan bool)
	go func() {
		pushed <- q.WaitPush(&Item{Seq: 1})
	}()

	// The pusher must be blocked until space appears.
	select {
	case <-pushed:
		t.Fatal("WaitPush returned on a full queue")
	case <-time.After(20 * time.Millisecond):
	}

	_, ok := q.TryPop()
	require.True(t, ok)

	select {
	case ok := <-pushed:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("WaitPush did not unblock after pop")
	}
}

func TestQueueWaitPopUnblocksOnPush(t *testing.T) {
	q := NewQueue(1)

	popped := make(chan *Item)
	go func() {
		item, _ := q.WaitPop()
		popped <- item
	}()

	time.Sleep(10 * time.Millisecond)
	require.True(t, q.TryPush(&Item{Seq: 7}))

	select {
	case item := <-popped:
		require.NotNil(t, item)
		assert.Equal(t, uint64(7), item.Seq)
	case <-time.After(time.Second):
		t.Fatal("WaitPop did not unblock after push")
	}
}

func TestQueueCloseWakesWaiters(t *testing.T) {
	q := NewQueue(1)
	require.True(t, q.TryPush(&Item{Seq: 0}))

	results := make(chan bool, 2)
	go func() {
		results <- q.WaitPush(&Item{Seq: 1}) // blocked: full
	}()
	empty := NewQueue(1)
	go func() {
		_, ok := empty.WaitPop() // blocked: empty
		results <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()
	empty.Close()

	for i := 0; i < 2; i++ {
		select {
		case ok := <-results:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("waiter not woken by Close")
		}
	}
}

func TestQueueDrainsAfterClose(t *testing.T) {
	q := NewQueue(4)
	require.True(t, q.TryPush(&Item{Seq: 0}))
	require.True(t, q.TryPush(&Item{Seq: 1}))
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.TryPush(&Item{Seq: 2}))

	// Items queued before close remain poppable.
	item, ok := q.WaitPop()
	require.True(t, ok)
	assert.Equal(t, uint64(0), item.Seq)
	item, ok = q.WaitPop()
	require.True(t, ok)
	assert.Equal(t, uint64(1), item.Seq)

	_, ok = q.WaitPop()
	assert.False(t, ok)
}

func TestQueueCloseIdempotent(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	q.Close()
	assert.True(t, q.Closed())
}
