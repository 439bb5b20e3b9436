package lifecycle

import (
	"sync"
	"time"
)

// EventEmitter is the interface the lifecycle package uses to emit events.
type EventEmitter interface {
	EmitResumed(gap time.Duration)
}

// Observer detects the terminal waking up from suspend. A coarse ticker
// samples the wall clock; when far more time has passed between samples
// than the sample interval, the process was asleep and the pending orders
// are stale, so a resume event is raised to force an immediate poll.
// An explicit Signal covers foreground transitions the gap heuristic
// cannot see, such as an operator console reconnecting.
type Observer struct {
	emitter   EventEmitter
	clock     Clock
	interval  time.Duration
	threshold time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewObserver creates an observer sampling at interval; a gap beyond
// threshold counts as a suspend/resume.
func NewObserver(emitter EventEmitter, interval, threshold time.Duration) *Observer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if threshold <= 0 {
		threshold = 3 * interval
	}
	return &Observer{
		emitter:   emitter,
		clock:     SystemClock(),
		interval:  interval,
		threshold: threshold,
	}
}

// Start begins gap sampling.
func (o *Observer) Start() {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	o.stopChan = make(chan struct{})
	o.running = true
	o.mu.Unlock()

	o.wg.Add(1)
	go o.loop()
}

// Stop halts gap sampling.
func (o *Observer) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	close(o.stopChan)
	o.running = false
	o.mu.Unlock()

	o.wg.Wait()
}

// Signal reports an explicit foreground transition.
func (o *Observer) Signal() {
	o.emitter.EmitResumed(0)
}

func (o *Observer) loop() {
	defer o.wg.Done()

	o.mu.Lock()
	stop := o.stopChan
	o.mu.Unlock()

	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	last := o.clock.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C():
			gap := now.Sub(last)
			last = now
			if gap > o.threshold {
				o.emitter.EmitResumed(gap)
			}
		}
	}
}
