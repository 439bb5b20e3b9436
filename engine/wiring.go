package engine

import (
	"log"

	"vendoredge/alert"
	"vendoredge/marketplace"

	"github.com/google/uuid"
)

// wireEventHandlers sets up the event chain:
// OrdersMerged → snapshot cache refresh
// AlertResolved → decision log + snapshot status
// Resumed → immediate poll
// SessionExpired → session flagged inactive (polling already halted)
func (e *Engine) wireEventHandlers() {
	e.Events.SubscribeTypes(func(evt Event) {
		merged := evt.Payload.(OrdersMergedEvent)
		e.handleOrdersMerged(merged)
	}, EventOrdersMerged)

	e.Events.SubscribeTypes(func(evt Event) {
		resolved := evt.Payload.(AlertResolvedEvent)
		e.handleAlertResolved(resolved)
	}, EventAlertResolved)

	e.Events.SubscribeTypes(func(evt Event) {
		presented := evt.Payload.(AlertPresentedEvent)
		e.logFn("alert presented: order=%s deadline=%ds", presented.Order.ID, presented.DeadlineSeconds)
	}, EventAlertPresented)

	e.Events.SubscribeTypes(func(evt Event) {
		resumed := evt.Payload.(ResumedEvent)
		e.logFn("resumed after %s, polling now", resumed.Gap)
		e.orderPoll.TriggerNow()
	}, EventResumed)

	e.Events.SubscribeTypes(func(evt Event) {
		expired := evt.Payload.(SessionExpiredEvent)
		e.sessionMu.Lock()
		e.sessionOK = false
		e.sessionMu.Unlock()
		e.logFn("marketplace session expired, polling halted: %s", expired.Error)
	}, EventSessionExpired)

	e.Events.SubscribeTypes(func(evt Event) {
		failed := evt.Payload.(PollFailedEvent)
		e.debugFn("poll failed (will retry): %s", failed.Error)
	}, EventPollFailed)
}

func (e *Engine) handleOrdersMerged(merged OrdersMergedEvent) {
	e.debugFn("poll merged: orders=%d novel=%d cold_start=%v",
		len(merged.Orders), merged.Novel, merged.ColdStart)

	for _, o := range merged.Orders {
		if err := e.db.UpsertOrderSnapshot(o); err != nil {
			log.Printf("upsert order snapshot %s: %v", o.ID, err)
		}
	}
}

func (e *Engine) handleAlertResolved(resolved AlertResolvedEvent) {
	e.logFn("alert resolved: order=%s cause=%s outcome=%s remaining=%ds",
		resolved.Order.ID, resolved.Cause, resolved.Outcome, resolved.RemainingSeconds)

	decisionUUID := uuid.New().String()
	if _, err := e.db.InsertDecision(decisionUUID, resolved.Order.ID,
		resolved.Cause, resolved.Outcome, resolved.Auto, resolved.RemainingSeconds); err != nil {
		log.Printf("insert decision for %s: %v", resolved.Order.ID, err)
	}
	if e.audit != nil {
		e.audit.RecordDecision(decisionUUID, resolved.Order.ID, resolved.Cause,
			resolved.Outcome, resolved.Auto, resolved.RemainingSeconds, resolved.Order.TotalAmount)
	}

	if alert.IsAccepting(resolved.Cause) && resolved.Outcome != "" {
		status := marketplace.OutcomeAccepted
		if resolved.Outcome == marketplace.OutcomeAlreadyHandled {
			status = marketplace.OutcomeAlreadyHandled
		}
		if err := e.db.MarkOrderStatus(resolved.Order.ID, status); err != nil {
			log.Printf("mark order %s status: %v", resolved.Order.ID, err)
		}
	}
}
