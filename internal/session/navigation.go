package session

import "sync"

// Navigator tracks the current question index and the navigator-panel
// visibility flag. Every index that comes in, from any path, is validated
// into [0, total); anything invalid falls back to 0.
type Navigator struct {
	mu            sync.Mutex
	index         int
	total         int
	showNavigator bool
}

func NewNavigator(initialIndex, total int) *Navigator {
	n := &Navigator{total: total, showNavigator: true}
	n.index = validateIndex(initialIndex, total)
	return n
}

func validateIndex(index, total int) int {
	if total <= 0 {
		return 0
	}
	if index >= 0 && index < total {
		return index
	}
	return 0
}

// Resync re-validates the current position against a new authoritative
// initial index and question count, for the case where question data
// arrives after the navigator was first defaulted.
func (n *Navigator) Resync(initialIndex, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.total = total
	n.index = validateIndex(initialIndex, total)
}

// GoTo moves to index, clamped to valid range.
func (n *Navigator) GoTo(index int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.index = validateIndex(index, n.total)
}

// Prev moves one question back; a no-op at the first question.
func (n *Navigator) Prev() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index > 0 {
		n.index = validateIndex(n.index-1, n.total)
	}
}

// Next moves one question forward; a no-op at the last question.
func (n *Navigator) Next() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index < n.total-1 {
		n.index = validateIndex(n.index+1, n.total)
	}
}

func (n *Navigator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

func (n *Navigator) Total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.total
}

func (n *Navigator) ToggleNavigator() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.showNavigator = !n.showNavigator
}

func (n *Navigator) NavigatorShown() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.showNavigator
}
