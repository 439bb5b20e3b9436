package messaging

import (
	"encoding/json"
	"log"
	"time"

	"vendoredge/store"
)

// AuditRecorder turns alert decisions into durable outbox rows. The
// drainer ships them when the broker is reachable; decisions are never
// lost to broker downtime and never block the alert path.
type AuditRecorder struct {
	db       *store.DB
	vendorID string
	nodeID   string
	topic    string
}

// NewAuditRecorder creates an audit recorder writing to the given topic.
func NewAuditRecorder(db *store.DB, vendorID, nodeID, topic string) *AuditRecorder {
	return &AuditRecorder{
		db:       db,
		vendorID: vendorID,
		nodeID:   nodeID,
		topic:    topic,
	}
}

// RecordDecision enqueues one decision audit message.
func (a *AuditRecorder) RecordDecision(decisionUUID, orderID, cause, outcome string, auto bool, remainingSeconds int, totalAmount float64) {
	payload, err := json.Marshal(DecisionMessage{
		VendorID:         a.vendorID,
		NodeID:           a.nodeID,
		DecisionUUID:     decisionUUID,
		OrderID:          orderID,
		Cause:            cause,
		Outcome:          outcome,
		Auto:             auto,
		RemainingSeconds: remainingSeconds,
		TotalAmount:      totalAmount,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("marshal decision %s: %v", decisionUUID, err)
		return
	}
	if _, err := a.db.EnqueueOutbox(a.topic, payload, "decision"); err != nil {
		log.Printf("enqueue decision %s: %v", decisionUUID, err)
	}
}
