package alert

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"vendoredge/marketplace"
)

// ActionGateway is the accept/reject side of the marketplace API.
type ActionGateway interface {
	Accept(ctx context.Context, orderID string) (string, error)
	Reject(ctx context.Context, orderID, reason string) (string, error)
}

// Controller owns the single active alert and the session's known-order
// set. All novelty detection, presentation, and resolution funnels through
// it, which is what keeps the single-flight invariant: at most one order
// is ever presenting, system-wide.
type Controller struct {
	mu      sync.Mutex
	state   string
	current *marketplace.Order
	known   *KnownSet
	primed  bool

	timer         *AutoAcceptTimer
	sink          Sink
	gateway       ActionGateway
	emitter       EventEmitter
	actionTimeout time.Duration
}

// Config holds the collaborators for a Controller.
type Config struct {
	Gateway       ActionGateway
	Sink          Sink
	Clock         Clock
	Emitter       EventEmitter
	ActionTimeout time.Duration
}

// NewController creates an idle controller with an empty known set.
func NewController(cfg Config) *Controller {
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 10 * time.Second
	}
	c := &Controller{
		state:         StateIdle,
		known:         NewKnownSet(),
		sink:          cfg.Sink,
		gateway:       cfg.Gateway,
		emitter:       cfg.Emitter,
		actionTimeout: cfg.ActionTimeout,
	}
	c.timer = NewAutoAcceptTimer(cfg.Clock, c.handleTick, c.handleExpire)
	return c
}

// Observe merges a poll result into the known set and, when novelty is
// found while idle, presents the first novel order. Every returned ID is
// merged before any alert is raised, so an overlapping poll can never
// rediscover the same novelty. The first successful poll of a session is
// a cold start: everything merges silently to avoid an alert storm for
// orders that predate the session.
func (c *Controller) Observe(batch []marketplace.Order) {
	c.mu.Lock()

	if !c.primed {
		for _, o := range batch {
			c.known.Add(o.ID)
		}
		c.primed = true
		c.mu.Unlock()
		if c.emitter != nil {
			c.emitter.EmitOrdersMerged(batch, 0, true)
		}
		return
	}

	var novel []marketplace.Order
	for _, o := range batch {
		if c.known.Add(o.ID) {
			novel = append(novel, o)
		}
	}

	presented := false
	var first marketplace.Order
	if len(novel) > 0 && c.state == StateIdle {
		// Only the first novel order of a batch is surfaced; the rest
		// stay in the known set and reach the operator through the
		// ordinary order list.
		first = novel[0]
		c.state = StatePresenting
		o := first
		c.current = &o
		c.sink.Start()
		presented = true
	}
	c.mu.Unlock()

	if c.emitter != nil {
		c.emitter.EmitOrdersMerged(batch, len(novel), false)
		if presented {
			c.emitter.EmitAlertPresented(first, first.AutoAcceptSeconds)
		}
	}

	// The countdown starts only after the presented event is on the bus,
	// so no tick or expiry can ever precede it. If the alert was resolved
	// in the window before this, the countdown must stay stopped.
	if presented {
		c.mu.Lock()
		if c.state == StatePresenting && c.current != nil && c.current.ID == first.ID {
			c.timer.Start(first.AutoAcceptSeconds)
		}
		c.mu.Unlock()
	}
}

// Accept resolves the active alert as a manual operator acceptance.
func (c *Controller) Accept() error {
	if !c.resolve(CauseUserAccept) {
		return fmt.Errorf("no alert to accept")
	}
	return nil
}

// Dismiss resolves the active alert without any backend action. The order
// stays in the known set, so it will not alert again; the operator deals
// with it later from the order list.
func (c *Controller) Dismiss() error {
	if !c.resolve(CauseUserDismiss) {
		return fmt.Errorf("no alert to dismiss")
	}
	return nil
}

// Shutdown tears down any presenting alert without a backend action.
// Called on engine stop; safe when already idle.
func (c *Controller) Shutdown() {
	c.resolve(CauseTeardown)
}

// Reset returns the controller to its initial state: any presenting alert
// is torn down, the known set is cleared, and the next successful poll is
// treated as a cold start again. Logout semantics.
func (c *Controller) Reset() {
	c.resolve(CauseTeardown)
	c.mu.Lock()
	c.known.Reset()
	c.primed = false
	c.mu.Unlock()
	if c.emitter != nil {
		c.emitter.EmitSessionReset()
	}
}

// Status is a point-in-time view of the controller for the console.
type Status struct {
	State      string             `json:"state"`
	Order      *marketplace.Order `json:"order,omitempty"`
	Remaining  int                `json:"remaining_seconds"`
	KnownCount int                `json:"known_orders"`
	Primed     bool               `json:"primed"`
}

// Snapshot returns the current controller status.
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		State:      c.state,
		Remaining:  c.timer.Remaining(),
		KnownCount: c.known.Len(),
		Primed:     c.primed,
	}
	if c.current != nil {
		o := *c.current
		st.Order = &o
	}
	return st
}

// resolve performs the teardown sequence for the active alert: cancel the
// countdown, stop the sink, run the cause-specific action, return to idle.
// The first two steps are unconditional and idempotent, so no control path
// can leak a running countdown or a looping sink. Calling resolve when no
// alert is presenting is a safe no-op, which is also what makes a timer
// expiry racing a user action fire the accept exactly once.
func (c *Controller) resolve(cause string) bool {
	c.mu.Lock()
	if c.state != StatePresenting || c.current == nil {
		c.mu.Unlock()
		return false
	}
	order := *c.current
	remaining := c.timer.Remaining()
	c.state = StateResolving
	c.timer.Cancel()
	c.sink.Stop()
	c.mu.Unlock()

	outcome := ""
	if IsAccepting(cause) {
		outcome = c.callAccept(order.ID)
	}

	c.mu.Lock()
	c.state = StateIdle
	c.current = nil
	c.mu.Unlock()

	if c.emitter != nil {
		c.emitter.EmitAlertResolved(order, cause, outcome, remaining)
	}
	return true
}

// callAccept issues the accept call with a bounded context. A failed call
// is logged and the resolution still proceeds as if it succeeded; the
// marketplace re-delivers unactioned orders on the next poll cycle, and
// the decision log keeps the failed outcome for reconciliation.
func (c *Controller) callAccept(orderID string) string {
	ctx, cancel := context.WithTimeout(context.Background(), c.actionTimeout)
	defer cancel()

	outcome, err := c.gateway.Accept(ctx, orderID)
	if err != nil {
		if marketplace.IsAuthError(err) {
			if c.emitter != nil {
				c.emitter.EmitAuthError(err)
			}
			return "auth_failed"
		}
		log.Printf("accept order %s: %v", orderID, err)
		return "send_failed"
	}
	return outcome
}

func (c *Controller) handleTick(remaining int) {
	c.mu.Lock()
	if c.state != StatePresenting || c.current == nil {
		c.mu.Unlock()
		return
	}
	id := c.current.ID
	c.mu.Unlock()
	if c.emitter != nil {
		c.emitter.EmitCountdownTick(id, remaining)
	}
}

func (c *Controller) handleExpire() {
	c.resolve(CauseAutoAccept)
}
