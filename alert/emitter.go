package alert

import "vendoredge/marketplace"

// EventEmitter is the interface the alert package uses to emit events.
type EventEmitter interface {
	EmitOrdersMerged(batch []marketplace.Order, novel int, coldStart bool)
	EmitAlertPresented(order marketplace.Order, deadlineSeconds int)
	EmitCountdownTick(orderID string, remaining int)
	EmitAlertResolved(order marketplace.Order, cause, outcome string, remainingSeconds int)
	EmitSessionReset()
	EmitAuthError(err error)
}
