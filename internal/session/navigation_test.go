package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigatorValidatesEveryIncomingIndex(t *testing.T) {
	n := NewNavigator(3, 5)
	assert.Equal(t, 3, n.Current())

	n.GoTo(99)
	assert.Equal(t, 0, n.Current(), "out-of-range jumps fall back to the first question")

	n.GoTo(-1)
	assert.Equal(t, 0, n.Current())

	n.GoTo(4)
	assert.Equal(t, 4, n.Current())
}

func TestNavigatorPrevNextStopAtEdges(t *testing.T) {
	n := NewNavigator(0, 3)

	n.Prev()
	assert.Equal(t, 0, n.Current(), "prev at the first question is a no-op")

	n.Next()
	n.Next()
	assert.Equal(t, 2, n.Current())

	n.Next()
	assert.Equal(t, 2, n.Current(), "next at the last question is a no-op")
}

func TestNavigatorEmptyQuestionSet(t *testing.T) {
	n := NewNavigator(7, 0)
	assert.Equal(t, 0, n.Current())
	n.Next()
	n.Prev()
	n.GoTo(2)
	assert.Equal(t, 0, n.Current())
}

func TestNavigatorConstructorMatchesResyncOrder(t *testing.T) {
	fresh := NewNavigator(2, 9)
	resynced := NewNavigator(0, 0)
	resynced.Resync(2, 9)
	assert.Equal(t, resynced.Current(), fresh.Current())
	assert.Equal(t, resynced.Total(), fresh.Total())
}

func TestNavigatorResync(t *testing.T) {
	n := NewNavigator(0, 0)
	n.Resync(2, 10)
	assert.Equal(t, 2, n.Current())
	assert.Equal(t, 10, n.Total())

	// Shrinking below the bookmark falls back to the start.
	n.Resync(15, 4)
	assert.Equal(t, 0, n.Current())
}

func TestNavigatorPanelToggle(t *testing.T) {
	n := NewNavigator(0, 2)
	assert.True(t, n.NavigatorShown())
	n.ToggleNavigator()
	assert.False(t, n.NavigatorShown())
	n.ToggleNavigator()
	assert.True(t, n.NavigatorShown())
}
