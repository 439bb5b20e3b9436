package alert

import (
	"sync"
	"time"
)

// AutoAcceptTimer counts an order's accept deadline down one second at a
// time and fires its expiry callback exactly once at zero. The value is a
// local mirror of the server-computed deadline; it is never resynchronized
// mid-countdown. A generation counter guards against a stale tick goroutine
// firing after Cancel or a restart.
type AutoAcceptTimer struct {
	mu         sync.Mutex
	clock      Clock
	onTick     func(remaining int)
	onExpire   func()
	remaining  int
	generation uint64
	stopChan   chan struct{}
	running    bool
}

// NewAutoAcceptTimer creates a stopped timer. Both callbacks may be nil.
func NewAutoAcceptTimer(clock Clock, onTick func(remaining int), onExpire func()) *AutoAcceptTimer {
	if clock == nil {
		clock = SystemClock()
	}
	return &AutoAcceptTimer{clock: clock, onTick: onTick, onExpire: onExpire}
}

// Start begins (or restarts) the countdown from the given number of seconds.
func (t *AutoAcceptTimer) Start(seconds int) {
	t.mu.Lock()
	if t.running {
		close(t.stopChan)
	}
	t.generation++
	gen := t.generation
	t.stopChan = make(chan struct{})
	stop := t.stopChan
	t.running = true
	if seconds < 0 {
		seconds = 0
	}
	t.remaining = seconds
	t.mu.Unlock()

	go t.loop(gen, stop)
}

// Cancel stops the countdown without firing expiry. Safe to call at any
// time, any number of times.
func (t *AutoAcceptTimer) Cancel() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.remaining = 0
	t.generation++
	close(t.stopChan)
	t.mu.Unlock()
}

// Remaining returns the seconds left, zero when stopped or expired.
func (t *AutoAcceptTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether a countdown is in progress.
func (t *AutoAcceptTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *AutoAcceptTimer) loop(gen uint64, stop <-chan struct{}) {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			t.mu.Lock()
			if t.generation != gen || !t.running {
				t.mu.Unlock()
				return
			}
			t.remaining--
			if t.remaining <= 0 {
				t.remaining = 0
				t.running = false
				t.generation++
				t.mu.Unlock()
				if t.onTick != nil {
					t.onTick(0)
				}
				if t.onExpire != nil {
					t.onExpire()
				}
				return
			}
			r := t.remaining
			t.mu.Unlock()
			if t.onTick != nil {
				t.onTick(r)
			}
		}
	}
}
