package messaging

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// Heartbeater sends a register message on startup and heartbeats
// periodically so the marketplace ops side can see vendor terminals.
type Heartbeater struct {
	client    *Client
	vendorID  string
	nodeID    string
	version   string
	topic     string
	interval  time.Duration
	startTime time.Time
	sessionFn func() bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHeartbeater creates a heartbeater for the given terminal identity.
// sessionFn reports whether the marketplace session is still accepted.
func NewHeartbeater(client *Client, vendorID, nodeID, version, topic string, sessionFn func() bool) *Heartbeater {
	return &Heartbeater{
		client:    client,
		vendorID:  vendorID,
		nodeID:    nodeID,
		version:   version,
		topic:     topic,
		interval:  60 * time.Second,
		sessionFn: sessionFn,
		stopCh:    make(chan struct{}),
	}
}

// Start sends an initial registration and begins the heartbeat loop.
func (h *Heartbeater) Start() {
	h.startTime = time.Now()
	h.sendRegister()
	go h.loop()
}

// Stop halts the heartbeat loop.
func (h *Heartbeater) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Heartbeater) sendRegister() {
	hostname, _ := os.Hostname()
	payload, err := json.Marshal(RegisterMessage{
		MsgType:   "terminal_register",
		VendorID:  h.vendorID,
		NodeID:    h.nodeID,
		Hostname:  hostname,
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("heartbeater: build register: %v", err)
		return
	}
	if err := h.client.Publish(h.topic, payload); err != nil {
		log.Printf("heartbeater: send register: %v", err)
	} else {
		log.Printf("heartbeater: sent terminal_register (vendor=%s)", h.vendorID)
	}
}

func (h *Heartbeater) sendHeartbeat() {
	sessionActive := true
	if h.sessionFn != nil {
		sessionActive = h.sessionFn()
	}
	payload, err := json.Marshal(HeartbeatMessage{
		MsgType:       "terminal_heartbeat",
		VendorID:      h.vendorID,
		NodeID:        h.nodeID,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		SessionActive: sessionActive,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("heartbeater: build heartbeat: %v", err)
		return
	}
	if err := h.client.Publish(h.topic, payload); err != nil {
		log.Printf("heartbeater: send heartbeat: %v", err)
	}
}

func (h *Heartbeater) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.sendHeartbeat()
		}
	}
}
