package feedback

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushAndDrain(t *testing.T) {
	q := NewQueue(4)

	first := q.Push(KindSuccess, "added")
	second := q.Push(KindWarning, "clamped")
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	events := q.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, KindSuccess, events[0].Kind)
	assert.Equal(t, "clamped", events[1].Message)
	assert.Empty(t, q.Pending())
}

func TestQueue_DropsOldestWhenFull(t *testing.T) {
	q := NewQueue(3)
	for i := 0; i < 5; i++ {
		q.Push(KindInfo, fmt.Sprintf("event %d", i))
	}

	pending := q.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, "event 2", pending[0].Message)
	assert.Equal(t, "event 4", pending[2].Message)
	assert.Equal(t, 2, q.Dropped())
}

func TestQueue_Dismiss(t *testing.T) {
	q := NewQueue(0)
	a := q.Push(KindInfo, "a")
	q.Push(KindInfo, "b")

	assert.True(t, q.Dismiss(a.ID))
	assert.False(t, q.Dismiss(a.ID))

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].Message)
}

func TestQueue_PendingIsACopy(t *testing.T) {
	q := NewQueue(2)
	q.Push(KindInfo, "a")

	pending := q.Pending()
	pending[0].Message = "changed"
	assert.Equal(t, "a", q.Pending()[0].Message)
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := NewQueue(DefaultCapacity)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Push(KindInfo, "x")
		}()
	}
	wg.Wait()

	assert.Len(t, q.Pending(), DefaultCapacity)
	assert.Equal(t, 100-DefaultCapacity, q.Dropped())
}
