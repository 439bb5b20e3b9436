package lifecycle

import "time"

// Ticker is the subset of time.Ticker the sampler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock produces tickers and wall-clock readings. Tests inject a manual
// clock so a suspend gap can be simulated instead of sleeping the process.
type Clock interface {
	NewTicker(d time.Duration) Ticker
	Now() time.Time
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

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock backed Clock used in production.
func SystemClock() Clock { return realClock{} }
