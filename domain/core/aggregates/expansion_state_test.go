package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpansionState_MarkAndCheck(t *testing.T) {
	state := NewExpansionState()

	assert.False(t, state.IsExpanded("A"))

	state.MarkExpanded("A")

	assert.True(t, state.IsExpanded("A"))
	assert.Equal(t, 1, state.ExpandedCount())
}

func TestExpansionState_QueueIsFIFO(t *testing.T) {
	state := NewExpansionState()

	state.Enqueue("A")
	state.Enqueue("B")
	state.Enqueue("C")

	first, ok := state.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "A", first)

	second, ok := state.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "B", second)

	third, ok := state.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "C", third)

	_, ok = state.Dequeue()
	assert.False(t, ok)
}

func TestExpansionState_EnqueueDedupes(t *testing.T) {
	state := NewExpansionState()

	state.Enqueue("A")
	state.Enqueue("A")

	assert.Equal(t, 1, state.QueueLen())
}

func TestExpansionState_EnqueueSkipsExpanded(t *testing.T) {
	state := NewExpansionState()
	state.MarkExpanded("A")

	state.Enqueue("A")

	assert.Equal(t, 0, state.QueueLen())
}

func TestExpansionState_DequeueSkipsLabelsExpandedWhileQueued(t *testing.T) {
	state := NewExpansionState()
	state.Enqueue("A")
	state.Enqueue("B")

	// A gets expanded manually before its turn comes up.
	state.MarkExpanded("A")

	next, ok := state.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "B", next)
}

func TestExpansionState_ReenqueueAfterDequeue(t *testing.T) {
	state := NewExpansionState()
	state.Enqueue("A")

	label, ok := state.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "A", label)

	// Dequeued but not expanded (a failed expansion) stays eligible.
	state.Enqueue("A")
	assert.Equal(t, 1, state.QueueLen())
}

func TestExpansionState_Forget(t *testing.T) {
	state := NewExpansionState()
	state.MarkExpanded("A")
	state.Enqueue("B")
	state.Enqueue("C")

	state.Forget("A")
	state.Forget("B")

	assert.False(t, state.IsExpanded("A"))
	assert.Equal(t, []string{"C"}, state.PendingQueue())

	// A forgotten label can be expanded fresh.
	state.Enqueue("A")
	assert.Equal(t, 2, state.QueueLen())
}

func TestExpansionState_PendingQueueIsACopy(t *testing.T) {
	state := NewExpansionState()
	state.Enqueue("A")

	pending := state.PendingQueue()
	pending[0] = "mutated"

	fromState, ok := state.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "A", fromState)
}
