package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"vendoredge/marketplace"
)

// OrderSource is the query side of the marketplace API.
type OrderSource interface {
	FetchPending(ctx context.Context) ([]marketplace.Order, error)
}

// Observer receives the orders of every successful poll. The alert
// controller implements this; it owns the known set and the novelty diff.
type Observer interface {
	Observe(batch []marketplace.Order)
}

// EventEmitter is the interface the poller uses to emit events.
type EventEmitter interface {
	EmitPollSucceeded(count int)
	EmitPollFailed(err error)
	EmitSessionExpired(err error)
}

// Poller fetches pending orders on a fixed interval, plus on demand when
// nudged (app resume, console reconnect). Polls never overlap: a trigger
// arriving while a fetch is in flight is coalesced away, not queued, so
// two fetches can never race their novelty diffs against a stale known
// set. A transient failure mutates nothing and the next cycle retries; an
// auth failure ends the polling session.
type Poller struct {
	source   OrderSource
	observer Observer
	emitter  EventEmitter
	interval time.Duration
	timeout  time.Duration

	inFlight atomic.Bool
	trigger  chan struct{}

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a poller. interval is the steady-state period; timeout
// bounds each fetch so a hung request cannot block the next cycle.
func New(source OrderSource, observer Observer, emitter EventEmitter, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Poller{
		source:   source,
		observer: observer,
		emitter:  emitter,
		interval: interval,
		timeout:  timeout,
		trigger:  make(chan struct{}, 1),
	}
}

// Start begins the poll loop. Safe to call again after Stop.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.stopChan = make(chan struct{})
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop()
}

// Stop halts the poll loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopChan)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// Running reports whether the poll loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// TriggerNow requests an immediate poll, bypassing the remaining interval
// wait. Non-blocking; triggers raised during an in-flight poll collapse
// into at most one pending nudge.
func (p *Poller) TriggerNow() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Poller) loop() {
	defer p.wg.Done()

	p.mu.Lock()
	stop := p.stopChan
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Immediate first poll: the session's cold-start merge.
	if !p.PollOnce() {
		return
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		case <-p.trigger:
		}
		if !p.PollOnce() {
			return
		}
		// Drop any nudge that piled up behind the poll we just ran;
		// its work is already done.
		select {
		case <-p.trigger:
		default:
		}
	}
}

// PollOnce performs a single guarded poll cycle. Returns false when the
// session is over (auth rejection) and polling must halt. A concurrent
// cycle already in flight makes this call a no-op.
func (p *Poller) PollOnce() bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		return true
	}
	defer p.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	orders, err := p.source.FetchPending(ctx)
	if err != nil {
		if marketplace.IsAuthError(err) {
			if p.emitter != nil {
				p.emitter.EmitSessionExpired(err)
			}
			p.halt()
			return false
		}
		// Transient: no mutation, no user-facing error; retried by the
		// next scheduled cycle.
		if p.emitter != nil {
			p.emitter.EmitPollFailed(err)
		}
		return true
	}

	p.observer.Observe(orders)
	if p.emitter != nil {
		p.emitter.EmitPollSucceeded(len(orders))
	}
	return true
}

// halt marks the loop stopped from within the loop itself, without the
// wg.Wait a caller-side Stop performs.
func (p *Poller) halt() {
	p.mu.Lock()
	if p.running {
		close(p.stopChan)
		p.running = false
	}
	p.mu.Unlock()
}
