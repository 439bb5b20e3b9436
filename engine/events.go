package engine

import (
	"time"

	"vendoredge/marketplace"
)

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	// Poll events
	EventOrdersMerged EventType = iota + 1
	EventPollSucceeded
	EventPollFailed

	// Alert events
	EventAlertPresented
	EventCountdownTick
	EventAlertResolved

	// Session events
	EventSessionExpired
	EventSessionReset

	// Lifecycle events
	EventResumed
)

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// OrdersMergedEvent is emitted when a poll result has been folded into
// the known set. ColdStart marks the session's first successful poll.
type OrdersMergedEvent struct {
	Orders    []marketplace.Order `json:"orders"`
	Novel     int                 `json:"novel"`
	ColdStart bool                `json:"cold_start"`
}

// PollSucceededEvent is emitted after every successful poll cycle.
type PollSucceededEvent struct {
	Count int `json:"count"`
}

// PollFailedEvent is emitted when a poll cycle fails transiently.
type PollFailedEvent struct {
	Error string `json:"error"`
}

// AlertPresentedEvent is emitted when a novel order interrupts the operator.
type AlertPresentedEvent struct {
	Order           marketplace.Order `json:"order"`
	DeadlineSeconds int               `json:"deadline_seconds"`
}

// CountdownTickEvent is emitted once per second while an alert presents.
type CountdownTickEvent struct {
	OrderID   string `json:"order_id"`
	Remaining int    `json:"remaining_seconds"`
}

// AlertResolvedEvent is emitted when the active alert reaches a decision.
type AlertResolvedEvent struct {
	Order            marketplace.Order `json:"order"`
	Cause            string            `json:"cause"`
	Outcome          string            `json:"outcome"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Auto             bool              `json:"auto"`
}

// SessionExpiredEvent is emitted when the marketplace rejects the session
// token; polling has halted.
type SessionExpiredEvent struct {
	Error string `json:"error"`
}

// SessionResetEvent is emitted on logout/session reset.
type SessionResetEvent struct{}

// ResumedEvent is emitted when the terminal wakes from suspend or the
// console reconnects. Gap is zero for explicit foreground signals.
type ResumedEvent struct {
	Gap time.Duration `json:"gap"`
}
