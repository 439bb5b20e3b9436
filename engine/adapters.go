package engine

import (
	"time"

	"vendoredge/alert"
	"vendoredge/marketplace"
)

// alertEmitter adapts the engine's EventBus to the alert.EventEmitter interface.
type alertEmitter struct {
	bus *EventBus
}

func (e *alertEmitter) EmitOrdersMerged(batch []marketplace.Order, novel int, coldStart bool) {
	e.bus.Emit(Event{Type: EventOrdersMerged, Payload: OrdersMergedEvent{
		Orders: batch, Novel: novel, ColdStart: coldStart,
	}})
}

func (e *alertEmitter) EmitAlertPresented(order marketplace.Order, deadlineSeconds int) {
	e.bus.Emit(Event{Type: EventAlertPresented, Payload: AlertPresentedEvent{
		Order: order, DeadlineSeconds: deadlineSeconds,
	}})
}

func (e *alertEmitter) EmitCountdownTick(orderID string, remaining int) {
	e.bus.Emit(Event{Type: EventCountdownTick, Payload: CountdownTickEvent{
		OrderID: orderID, Remaining: remaining,
	}})
}

func (e *alertEmitter) EmitAlertResolved(order marketplace.Order, cause, outcome string, remainingSeconds int) {
	e.bus.Emit(Event{Type: EventAlertResolved, Payload: AlertResolvedEvent{
		Order: order, Cause: cause, Outcome: outcome,
		RemainingSeconds: remainingSeconds, Auto: alert.IsAutomatic(cause),
	}})
}

func (e *alertEmitter) EmitSessionReset() {
	e.bus.Emit(Event{Type: EventSessionReset, Payload: SessionResetEvent{}})
}

func (e *alertEmitter) EmitAuthError(err error) {
	e.bus.Emit(Event{Type: EventSessionExpired, Payload: SessionExpiredEvent{Error: err.Error()}})
}

// pollEmitter adapts the engine's EventBus to the poller.EventEmitter interface.
type pollEmitter struct {
	bus *EventBus
}

func (e *pollEmitter) EmitPollSucceeded(count int) {
	e.bus.Emit(Event{Type: EventPollSucceeded, Payload: PollSucceededEvent{Count: count}})
}

func (e *pollEmitter) EmitPollFailed(err error) {
	e.bus.Emit(Event{Type: EventPollFailed, Payload: PollFailedEvent{Error: err.Error()}})
}

func (e *pollEmitter) EmitSessionExpired(err error) {
	e.bus.Emit(Event{Type: EventSessionExpired, Payload: SessionExpiredEvent{Error: err.Error()}})
}

// lifecycleEmitter adapts the engine's EventBus to the lifecycle.EventEmitter interface.
type lifecycleEmitter struct {
	bus *EventBus
}

func (e *lifecycleEmitter) EmitResumed(gap time.Duration) {
	e.bus.Emit(Event{Type: EventResumed, Payload: ResumedEvent{Gap: gap}})
}
