package alert

import "log"

// Sink is the interruptive side of an alert: sound, vibration, a strobe,
// whatever the terminal hardware provides. Start begins the loop and Stop
// ends it; both must be idempotent and non-blocking. The controller
// guarantees Stop is called on every exit from the presenting state.
type Sink interface {
	Start()
	Stop()
}

// NopSink is a Sink that does nothing. Used in tests and as the default
// when no hardware sink is configured.
type NopSink struct{}

func (NopSink) Start() {}
func (NopSink) Stop()  {}

// LogSink logs start/stop transitions. Stands in for real terminal
// hardware on headless deployments.
type LogSink struct{}

func (LogSink) Start() { log.Printf("alert sink: start") }
func (LogSink) Stop()  { log.Printf("alert sink: stop") }
