package messaging

// DecisionMessage is the outbound audit record for one alert resolution.
// Auto distinguishes countdown-expiry acceptance from a manual tap, which
// is what billing/SLA reconciliation cares about.
type DecisionMessage struct {
	VendorID         string  `json:"vendor_id"`
	NodeID           string  `json:"node_id"`
	DecisionUUID     string  `json:"decision_uuid"`
	OrderID          string  `json:"order_id"`
	Cause            string  `json:"cause"`
	Outcome          string  `json:"outcome"`
	Auto             bool    `json:"auto"`
	RemainingSeconds int     `json:"remaining_seconds"`
	TotalAmount      float64 `json:"total_amount"`
	Timestamp        string  `json:"timestamp"`
}

// RegisterMessage announces a vendor terminal coming online.
type RegisterMessage struct {
	MsgType   string `json:"msg_type"` // "terminal_register"
	VendorID  string `json:"vendor_id"`
	NodeID    string `json:"node_id"`
	Hostname  string `json:"hostname"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// HeartbeatMessage is the periodic liveness signal.
type HeartbeatMessage struct {
	MsgType       string `json:"msg_type"` // "terminal_heartbeat"
	VendorID      string `json:"vendor_id"`
	NodeID        string `json:"node_id"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	SessionActive bool   `json:"session_active"`
	Timestamp     string `json:"timestamp"`
}
