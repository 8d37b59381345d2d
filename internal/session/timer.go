package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is the attempt countdown. One ticker at most is ever live: Reset
// stops the previous one under the lock before starting again, so no
// stale interval survives into the next run, and the completion callback
// fires exactly once per run, when remaining hits zero.
type Timer struct {
	clock      clockwork.Clock
	onComplete func()

	mu         sync.Mutex
	remaining  int
	generation int
	ticker     clockwork.Ticker
	stop       chan struct{}
}

func NewTimer(clock clockwork.Clock, onComplete func()) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock, onComplete: onComplete}
}

// Reset installs a new authoritative duration and restarts the countdown.
// The previous ticker is torn down before the new one is created, so the
// next tick always belongs to the new run. A non-positive duration stops
// the timer and pins remaining at zero without firing the completion
// callback.
func (t *Timer) Reset(seconds int) {
	t.mu.Lock()
	t.stopLocked()
	t.generation++
	gen := t.generation

	if seconds <= 0 {
		t.remaining = 0
		t.mu.Unlock()
		return
	}

	t.remaining = seconds
	ticker := t.clock.NewTicker(time.Second)
	t.ticker = ticker
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(gen, ticker, stop)
}

func (t *Timer) run(gen int, ticker clockwork.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			t.mu.Lock()
			if gen != t.generation {
				t.mu.Unlock()
				return
			}
			t.remaining--
			if t.remaining > 0 {
				t.mu.Unlock()
				continue
			}
			t.remaining = 0
			t.stopLocked()
			done := t.onComplete
			t.mu.Unlock()

			if done != nil {
				done()
			}
			return
		}
	}
}

// Remaining returns the current countdown value in seconds.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Stop halts ticking without firing the completion callback.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.generation++
}

func (t *Timer) stopLocked() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}
