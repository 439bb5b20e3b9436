package alert

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"vendoredge/marketplace"
)

// manualTicker / manualClock let tests drive countdowns tick by tick
// instead of sleeping real seconds.
type manualTicker struct {
	ch chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

type manualClock struct {
	mu     sync.Mutex
	latest *manualTicker
	ready  chan struct{}
}

func newManualClock() *manualClock {
	return &manualClock{ready: make(chan struct{}, 16)}
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	t := &manualTicker{ch: make(chan time.Time, 64)}
	c.mu.Lock()
	c.latest = t
	c.mu.Unlock()
	select {
	case c.ready <- struct{}{}:
	default:
	}
	return t
}

// waitTicker blocks until a countdown goroutine has created its ticker.
func (c *manualClock) waitTicker(t *testing.T) *manualTicker {
	t.Helper()
	select {
	case <-c.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown ticker was never created")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

type mergedRec struct {
	count     int
	novel     int
	coldStart bool
}

type resolvedRec struct {
	orderID   string
	cause     string
	outcome   string
	remaining int
}

type recordingEmitter struct {
	mu        sync.Mutex
	merged    []mergedRec
	presented []string
	ticks     []int
	resolved  []resolvedRec
	resets    int
	authErrs  int
}

func (r *recordingEmitter) EmitOrdersMerged(batch []marketplace.Order, novel int, coldStart bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merged = append(r.merged, mergedRec{count: len(batch), novel: novel, coldStart: coldStart})
}

func (r *recordingEmitter) EmitAlertPresented(order marketplace.Order, deadlineSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presented = append(r.presented, order.ID)
}

func (r *recordingEmitter) EmitCountdownTick(orderID string, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, remaining)
}

func (r *recordingEmitter) EmitAlertResolved(order marketplace.Order, cause, outcome string, remainingSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, resolvedRec{orderID: order.ID, cause: cause, outcome: outcome, remaining: remainingSeconds})
}

func (r *recordingEmitter) EmitSessionReset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func (r *recordingEmitter) EmitAuthError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authErrs++
}

func (r *recordingEmitter) presentedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.presented)
}

func (r *recordingEmitter) resolvedEvents() []resolvedRec {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]resolvedRec, len(r.resolved))
	copy(out, r.resolved)
	return out
}

type mockGateway struct {
	mu        sync.Mutex
	accepts   []string
	rejects   []string
	acceptErr error
	outcome   string
}

func (g *mockGateway) Accept(ctx context.Context, orderID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accepts = append(g.accepts, orderID)
	if g.acceptErr != nil {
		return "", g.acceptErr
	}
	if g.outcome != "" {
		return g.outcome, nil
	}
	return marketplace.OutcomeAccepted, nil
}

func (g *mockGateway) Reject(ctx context.Context, orderID, reason string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejects = append(g.rejects, orderID)
	return marketplace.OutcomeRejected, nil
}

func (g *mockGateway) acceptCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.accepts)
}

type countingSink struct {
	mu     sync.Mutex
	starts int
	stops  int
}

func (s *countingSink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
}

func (s *countingSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func order(id string, deadline int) marketplace.Order {
	return marketplace.Order{
		ID:                id,
		CustomerName:      "Test Customer",
		ItemsCount:        2,
		TotalAmount:       1450,
		AutoAcceptSeconds: deadline,
		Status:            "pending",
	}
}

func newTestController(t *testing.T) (*Controller, *mockGateway, *recordingEmitter, *manualClock) {
	t.Helper()
	gw := &mockGateway{}
	em := &recordingEmitter{}
	clk := newManualClock()
	c := NewController(Config{
		Gateway: gw,
		Clock:   clk,
		Emitter: em,
	})
	return c, gw, em, clk
}

func TestController_ColdStartMergesSilently(t *testing.T) {
	c, gw, em, _ := newTestController(t)

	c.Observe([]marketplace.Order{order("o1", 30), order("o2", 30), order("o3", 30)})

	if n := em.presentedCount(); n != 0 {
		t.Errorf("cold start presented %d alerts, want 0", n)
	}
	if n := gw.acceptCount(); n != 0 {
		t.Errorf("cold start made %d accept calls, want 0", n)
	}

	st := c.Snapshot()
	if st.State != StateIdle {
		t.Errorf("state = %q, want %q", st.State, StateIdle)
	}
	if st.KnownCount != 3 {
		t.Errorf("known count = %d, want 3", st.KnownCount)
	}
	if !st.Primed {
		t.Error("controller should be primed after first observation")
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.merged) != 1 || !em.merged[0].coldStart || em.merged[0].novel != 0 {
		t.Errorf("merged events = %+v, want one cold-start merge with zero novel", em.merged)
	}
}

func TestController_PresentsFirstNovelOnly(t *testing.T) {
	c, _, em, clk := newTestController(t)

	c.Observe(nil) // prime
	c.Observe([]marketplace.Order{order("a", 30), order("b", 30), order("c", 30)})
	clk.waitTicker(t)

	em.mu.Lock()
	presented := append([]string(nil), em.presented...)
	em.mu.Unlock()
	if len(presented) != 1 || presented[0] != "a" {
		t.Fatalf("presented = %v, want [a]", presented)
	}

	st := c.Snapshot()
	if st.State != StatePresenting {
		t.Errorf("state = %q, want %q", st.State, StatePresenting)
	}
	if st.Order == nil || st.Order.ID != "a" {
		t.Errorf("current order = %+v, want a", st.Order)
	}
	if st.KnownCount != 3 {
		t.Errorf("known count = %d, want 3 (all merged before alerting)", st.KnownCount)
	}
}

func TestController_NovelWhilePresentingDoesNotInterrupt(t *testing.T) {
	c, _, em, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)

	c.Observe([]marketplace.Order{order("a", 30), order("b", 30)})

	if n := em.presentedCount(); n != 1 {
		t.Errorf("presented %d alerts, want 1 (b merged without interrupting a)", n)
	}
	st := c.Snapshot()
	if st.Order == nil || st.Order.ID != "a" {
		t.Errorf("current order = %+v, want a", st.Order)
	}
	if st.KnownCount != 2 {
		t.Errorf("known count = %d, want 2", st.KnownCount)
	}

	// b is already known now, so it never alerts later either.
	if err := c.Dismiss(); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	c.Observe([]marketplace.Order{order("a", 30), order("b", 30)})
	if n := em.presentedCount(); n != 1 {
		t.Errorf("presented %d alerts after re-observing b, want 1", n)
	}
}

func TestController_DuplicateNeverRealerts(t *testing.T) {
	c, _, em, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)
	if err := c.Dismiss(); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	for i := 0; i < 3; i++ {
		c.Observe([]marketplace.Order{order("a", 30)})
	}
	if n := em.presentedCount(); n != 1 {
		t.Errorf("presented %d alerts, want 1", n)
	}
}

func TestController_AcceptCallsGateway(t *testing.T) {
	c, gw, em, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)

	if err := c.Accept(); err != nil {
		t.Fatalf("accept: %v", err)
	}

	gw.mu.Lock()
	accepts := append([]string(nil), gw.accepts...)
	gw.mu.Unlock()
	if len(accepts) != 1 || accepts[0] != "a" {
		t.Fatalf("gateway accepts = %v, want [a]", accepts)
	}

	resolved := em.resolvedEvents()
	if len(resolved) != 1 {
		t.Fatalf("resolved events = %d, want 1", len(resolved))
	}
	if resolved[0].cause != CauseUserAccept || resolved[0].outcome != marketplace.OutcomeAccepted {
		t.Errorf("resolved = %+v, want user accept with accepted outcome", resolved[0])
	}
	if st := c.Snapshot(); st.State != StateIdle {
		t.Errorf("state = %q, want %q", st.State, StateIdle)
	}
}

func TestController_DismissTakesNoBackendAction(t *testing.T) {
	c, gw, em, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)

	if err := c.Dismiss(); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	if n := gw.acceptCount(); n != 0 {
		t.Errorf("dismiss made %d accept calls, want 0", n)
	}
	resolved := em.resolvedEvents()
	if len(resolved) != 1 || resolved[0].cause != CauseUserDismiss || resolved[0].outcome != "" {
		t.Errorf("resolved = %+v, want user dismiss with empty outcome", resolved)
	}

	// Dismissed order stays known.
	st := c.Snapshot()
	if st.KnownCount != 1 {
		t.Errorf("known count = %d, want 1", st.KnownCount)
	}
}

func TestController_ActionsWithNoAlertFail(t *testing.T) {
	c, _, _, _ := newTestController(t)

	if err := c.Accept(); err == nil {
		t.Error("accept with no alert should fail")
	}
	if err := c.Dismiss(); err == nil {
		t.Error("dismiss with no alert should fail")
	}
}

func TestController_AutoAcceptFiresExactlyOnce(t *testing.T) {
	c, gw, em, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 2)})
	tk := clk.waitTicker(t)

	tk.ch <- time.Now()
	tk.ch <- time.Now()

	waitFor(t, "auto-accept gateway call", func() bool { return gw.acceptCount() == 1 })
	waitFor(t, "idle state after expiry", func() bool { return c.Snapshot().State == StateIdle })

	// A late tick or a racing user action must not accept again.
	tk.ch <- time.Now()
	if err := c.Accept(); err == nil {
		t.Error("accept after expiry should fail")
	}
	time.Sleep(50 * time.Millisecond)
	if n := gw.acceptCount(); n != 1 {
		t.Errorf("gateway accepted %d times, want exactly 1", n)
	}

	resolved := em.resolvedEvents()
	if len(resolved) != 1 || resolved[0].cause != CauseAutoAccept {
		t.Errorf("resolved = %+v, want one auto-accept resolution", resolved)
	}
	if resolved[0].remaining != 0 {
		t.Errorf("remaining at expiry = %d, want 0", resolved[0].remaining)
	}
}

func TestController_UserAcceptCancelsCountdown(t *testing.T) {
	c, gw, _, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	tk := clk.waitTicker(t)

	if err := c.Accept(); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Ticks from the cancelled countdown must be inert.
	tk.ch <- time.Now()
	tk.ch <- time.Now()
	time.Sleep(50 * time.Millisecond)
	if n := gw.acceptCount(); n != 1 {
		t.Errorf("gateway accepted %d times, want exactly 1", n)
	}
}

func TestController_CountdownTicksEmitted(t *testing.T) {
	c, _, em, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 3)})
	tk := clk.waitTicker(t)

	tk.ch <- time.Now()
	tk.ch <- time.Now()
	waitFor(t, "countdown ticks", func() bool {
		em.mu.Lock()
		defer em.mu.Unlock()
		return len(em.ticks) >= 2
	})

	em.mu.Lock()
	ticks := append([]int(nil), em.ticks...)
	em.mu.Unlock()
	if ticks[0] != 2 || ticks[1] != 1 {
		t.Errorf("ticks = %v, want [2 1 ...]", ticks)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i] >= ticks[i-1] {
			t.Errorf("ticks not strictly decreasing: %v", ticks)
		}
	}
}

func TestController_AcceptFailureStillResolves(t *testing.T) {
	c, gw, em, clk := newTestController(t)
	gw.acceptErr = errors.New("connection refused")

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)

	if err := c.Accept(); err != nil {
		t.Fatalf("accept: %v", err)
	}

	resolved := em.resolvedEvents()
	if len(resolved) != 1 || resolved[0].outcome != "send_failed" {
		t.Errorf("resolved = %+v, want send_failed outcome", resolved)
	}
	if st := c.Snapshot(); st.State != StateIdle {
		t.Errorf("state = %q, want idle after failed accept", st.State)
	}
}

func TestController_AuthFailureOnAccept(t *testing.T) {
	c, _, em, clk := newTestController(t)
	gw := &mockGateway{acceptErr: fmt.Errorf("accept: %w", marketplace.ErrAuth)}
	c.gateway = gw

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)

	if err := c.Accept(); err != nil {
		t.Fatalf("accept: %v", err)
	}

	resolved := em.resolvedEvents()
	if len(resolved) != 1 || resolved[0].outcome != "auth_failed" {
		t.Errorf("resolved = %+v, want auth_failed outcome", resolved)
	}
	em.mu.Lock()
	authErrs := em.authErrs
	em.mu.Unlock()
	if authErrs != 1 {
		t.Errorf("auth errors emitted = %d, want 1", authErrs)
	}
}

func TestController_ShutdownWhilePresenting(t *testing.T) {
	c, gw, em, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)

	c.Shutdown()

	if n := gw.acceptCount(); n != 0 {
		t.Errorf("shutdown made %d accept calls, want 0", n)
	}
	resolved := em.resolvedEvents()
	if len(resolved) != 1 || resolved[0].cause != CauseTeardown {
		t.Errorf("resolved = %+v, want teardown", resolved)
	}

	// Shutdown when already idle is a no-op.
	c.Shutdown()
	if len(em.resolvedEvents()) != 1 {
		t.Error("second shutdown should not resolve again")
	}
}

func TestController_ResetClearsSession(t *testing.T) {
	c, _, em, clk := newTestController(t)

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)

	c.Reset()

	st := c.Snapshot()
	if st.State != StateIdle || st.KnownCount != 0 || st.Primed {
		t.Errorf("after reset: %+v, want idle, empty, unprimed", st)
	}
	em.mu.Lock()
	resets := em.resets
	em.mu.Unlock()
	if resets != 1 {
		t.Errorf("session resets = %d, want 1", resets)
	}

	// Next observation is a cold start again: a re-delivers silently.
	presentedBefore := em.presentedCount()
	c.Observe([]marketplace.Order{order("a", 30)})
	if n := em.presentedCount(); n != presentedBefore {
		t.Errorf("order alerted after reset cold start; presented %d, want %d", n, presentedBefore)
	}
}

// sequenceEmitter records the order events hit the bus in.
type sequenceEmitter struct {
	mu  sync.Mutex
	seq []string
}

func (e *sequenceEmitter) add(label string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq = append(e.seq, label)
}

func (e *sequenceEmitter) EmitOrdersMerged(batch []marketplace.Order, novel int, coldStart bool) {
	e.add("merged")
}
func (e *sequenceEmitter) EmitAlertPresented(order marketplace.Order, deadlineSeconds int) {
	e.add("presented")
}
func (e *sequenceEmitter) EmitCountdownTick(orderID string, remaining int) { e.add("tick") }
func (e *sequenceEmitter) EmitAlertResolved(order marketplace.Order, cause, outcome string, remainingSeconds int) {
	e.add("resolved")
}
func (e *sequenceEmitter) EmitSessionReset()     { e.add("reset") }
func (e *sequenceEmitter) EmitAuthError(_ error) { e.add("auth") }

func (e *sequenceEmitter) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.seq))
	copy(out, e.seq)
	return out
}

func TestController_PresentedPrecedesCountdownEvents(t *testing.T) {
	gw := &mockGateway{}
	em := &sequenceEmitter{}
	clk := newManualClock()
	c := NewController(Config{Gateway: gw, Clock: clk, Emitter: em})
	c.Observe(nil)

	// Race the countdown against the presentation: fire the expiry tick
	// the instant the ticker exists.
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-clk.ready:
		case <-time.After(2 * time.Second):
			return
		}
		clk.mu.Lock()
		tk := clk.latest
		clk.mu.Unlock()
		tk.ch <- time.Now()
	}()

	c.Observe([]marketplace.Order{order("a", 1)})
	<-done
	waitFor(t, "auto-accept resolution", func() bool { return gw.acceptCount() == 1 })

	seq := em.snapshot()
	presentedAt := -1
	for i, label := range seq {
		if label == "presented" {
			presentedAt = i
			break
		}
	}
	if presentedAt < 0 {
		t.Fatalf("sequence %v has no presented event", seq)
	}
	for i, label := range seq {
		if (label == "tick" || label == "resolved") && i < presentedAt {
			t.Fatalf("sequence %v: %s at %d precedes presented at %d", seq, label, i, presentedAt)
		}
	}
}

func TestController_RandomizedInterleavings(t *testing.T) {
	c, gw, em, _ := newTestController(t)
	c.Observe(nil)

	const total = 120
	stop := make(chan struct{})

	var actors sync.WaitGroup
	for w := 0; w < 2; w++ {
		actors.Add(1)
		go func(seed int64) {
			defer actors.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
				}
				if rng.Intn(2) == 0 {
					c.Accept()
				} else {
					c.Dismiss()
				}
				if rng.Intn(16) == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}(int64(w + 1))
	}

	for i := 0; i < total; i++ {
		c.Observe([]marketplace.Order{order(fmt.Sprintf("r%03d", i), 1000)})
	}
	close(stop)
	actors.Wait()
	c.Shutdown()

	st := c.Snapshot()
	if st.State != StateIdle {
		t.Errorf("state = %q, want idle after drain", st.State)
	}
	if st.KnownCount != total {
		t.Errorf("known count = %d, want %d (monotonic merge)", st.KnownCount, total)
	}

	em.mu.Lock()
	presented := append([]string(nil), em.presented...)
	resolved := append([]resolvedRec(nil), em.resolved...)
	em.mu.Unlock()

	// Single-flight: each presentation resolves exactly once, no overlap
	// leaks an extra resolution or presentation.
	if len(resolved) != len(presented) {
		t.Errorf("presented %d alerts but resolved %d", len(presented), len(resolved))
	}
	seen := make(map[string]bool)
	for _, id := range presented {
		if seen[id] {
			t.Errorf("order %s presented twice", id)
		}
		seen[id] = true
	}

	// Exactly-once accept: no order is ever accepted more than once, and
	// only presented orders are accepted.
	gw.mu.Lock()
	accepts := append([]string(nil), gw.accepts...)
	gw.mu.Unlock()
	acceptedCount := make(map[string]int)
	for _, id := range accepts {
		acceptedCount[id]++
	}
	for id, n := range acceptedCount {
		if n > 1 {
			t.Errorf("order %s accepted %d times", id, n)
		}
		if !seen[id] {
			t.Errorf("order %s accepted without being presented", id)
		}
	}
}

func TestController_SinkStartStopBalanced(t *testing.T) {
	gw := &mockGateway{}
	sink := &countingSink{}
	clk := newManualClock()
	c := NewController(Config{Gateway: gw, Sink: sink, Clock: clk, Emitter: &recordingEmitter{}})

	c.Observe(nil)
	c.Observe([]marketplace.Order{order("a", 30)})
	clk.waitTicker(t)
	if err := c.Dismiss(); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.starts != 1 || sink.stops != 1 {
		t.Errorf("sink starts=%d stops=%d, want 1/1", sink.starts, sink.stops)
	}
}
