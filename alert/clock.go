package alert

import "time"

// Ticker is the subset of time.Ticker the countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock produces tickers. Tests inject a manual clock so countdowns can
// be driven deterministically instead of sleeping real seconds.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

// SystemClock returns the wall-clock backed Clock used in production.
func SystemClock() Clock { return realClock{} }
