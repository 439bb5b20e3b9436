package engine

import (
	"sync"

	"vendoredge/alert"
	"vendoredge/config"
	"vendoredge/lifecycle"
	"vendoredge/marketplace"
	"vendoredge/messaging"
	"vendoredge/poller"
	"vendoredge/store"
)

// LogFunc is the logging callback signature.
type LogFunc func(format string, args ...interface{})

// Engine centralizes the order-alert pipeline and orchestrates subsystems:
// the poller feeds the alert controller, the lifecycle observer nudges the
// poller awake, and everything reports through the EventBus.
type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	logFn      LogFunc
	debugFn    LogFunc

	client     *marketplace.Client
	source     poller.OrderSource
	gateway    alert.ActionGateway
	sink       alert.Sink
	clock      alert.Clock
	controller *alert.Controller
	orderPoll  *poller.Poller
	observer   *lifecycle.Observer

	audit *messaging.AuditRecorder

	sessionMu sync.Mutex
	sessionOK bool

	Events *EventBus
}

// Config holds the parameters needed to create an Engine. Source, Gateway,
// Sink, and Clock are optional overrides; by default both API sides are
// served by one marketplace client built from the app config.
type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	LogFunc    LogFunc
	Debug      bool

	Source  poller.OrderSource
	Gateway alert.ActionGateway
	Sink    alert.Sink
	Clock   alert.Clock
	Audit   *messaging.AuditRecorder
}

// New creates a new Engine. Call Start() to wire and start subsystems.
func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = func(string, ...interface{}) {}
	}
	debugFn := LogFunc(func(string, ...interface{}) {})
	if c.Debug {
		debugFn = logFn
	}

	e := &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		logFn:      logFn,
		debugFn:    debugFn,
		source:     c.Source,
		gateway:    c.Gateway,
		sink:       c.Sink,
		clock:      c.Clock,
		audit:      c.Audit,
		Events:     NewEventBus(),
	}

	if e.source == nil || e.gateway == nil {
		e.client = marketplace.NewClient(e.cfg.Marketplace.URL, e.cfg.Marketplace.Token)
		if e.source == nil {
			e.source = e.client
		}
		if e.gateway == nil {
			e.gateway = e.client
		}
	}
	if e.sink == nil {
		switch e.cfg.Alerting.SinkMode {
		case "log":
			e.sink = alert.LogSink{}
		default:
			e.sink = alert.NopSink{}
		}
	}
	return e
}

// Start creates all managers, wires event handlers, and starts subsystems.
func (e *Engine) Start() {
	e.controller = alert.NewController(alert.Config{
		Gateway:       e.gateway,
		Sink:          e.sink,
		Clock:         e.clock,
		Emitter:       &alertEmitter{bus: e.Events},
		ActionTimeout: e.cfg.Marketplace.ActionTimeout,
	})

	e.orderPoll = poller.New(e.source, e.controller, &pollEmitter{bus: e.Events},
		e.cfg.Marketplace.PollInterval, e.cfg.Marketplace.FetchTimeout)

	e.observer = lifecycle.NewObserver(&lifecycleEmitter{bus: e.Events},
		e.cfg.Lifecycle.SampleInterval, e.cfg.Lifecycle.ResumeThreshold)

	e.wireEventHandlers()

	e.sessionMu.Lock()
	e.sessionOK = true
	e.sessionMu.Unlock()

	e.orderPoll.Start()
	e.observer.Start()

	e.logFn("Engine started: vendor=%s url=%s poll=%s",
		e.cfg.VendorID, e.cfg.Marketplace.URL, e.cfg.Marketplace.PollInterval)
}

// Stop shuts down all subsystems gracefully. Any presenting alert is torn
// down without a backend action; the server-side deadline still governs.
func (e *Engine) Stop() {
	if e.observer != nil {
		e.observer.Stop()
	}
	if e.orderPoll != nil {
		e.orderPoll.Stop()
	}
	if e.controller != nil {
		e.controller.Shutdown()
	}
	e.logFn("Engine stopped")
}

// ResetSession implements logout semantics: the alert controller tears
// down and forgets every surfaced order, and the next successful poll is
// a cold start. If polling was halted by an auth rejection, it restarts.
func (e *Engine) ResetSession() {
	e.controller.Reset()
	e.sessionMu.Lock()
	e.sessionOK = true
	e.sessionMu.Unlock()
	if e.orderPoll.Running() {
		e.orderPoll.TriggerNow()
	} else {
		e.orderPoll.Start()
	}
}

// ApplyMarketplaceToken applies a refreshed bearer token to the live API
// client. No-op when the API sides were injected rather than built from
// the app config.
func (e *Engine) ApplyMarketplaceToken(token string) {
	if e.client != nil {
		e.client.SetToken(token)
	}
}

// SessionActive reports whether the marketplace session is still accepted.
func (e *Engine) SessionActive() bool {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()
	return e.sessionOK
}

// DB returns the database handle.
func (e *Engine) DB() *store.DB { return e.db }

// AppConfig returns the app config.
func (e *Engine) AppConfig() *config.Config { return e.cfg }

// ConfigPath returns the config file path.
func (e *Engine) ConfigPath() string { return e.configPath }

// Controller returns the alert controller.
func (e *Engine) Controller() *alert.Controller { return e.controller }

// Poller returns the order poller.
func (e *Engine) Poller() *poller.Poller { return e.orderPoll }

// Observer returns the lifecycle observer.
func (e *Engine) Observer() *lifecycle.Observer { return e.observer }
