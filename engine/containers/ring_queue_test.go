package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFixedRejectsWhenFull(t *testing.T) {
	rq := NewRingQueue[int](2)

	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	assert.True(t, rq.IsFull())
	assert.ErrorIs(t, rq.Enqueue(3), ErrQueueFull)

	v, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, rq.Enqueue(3))

	v, _ = rq.Dequeue()
	assert.Equal(t, 2, v)
	v, _ = rq.Dequeue()
	assert.Equal(t, 3, v)

	_, err = rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueGrowablePreservesOrderAcrossWrap(t *testing.T) {
	rq := NewGrowableRingQueue[int](2)

	// move the read index so the grow has to unwrap the buffer
	require.NoError(t, rq.Enqueue(0))
	_, _ = rq.Dequeue()

	for i := 1; i <= 9; i++ {
		require.NoError(t, rq.Enqueue(i))
	}
	assert.Equal(t, 9, rq.Len())
	assert.GreaterOrEqual(t, rq.Cap(), 9)

	head, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, head)

	for i := 1; i <= 9; i++ {
		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, rq.IsEmpty())
}
