package www

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"vendoredge/engine"
)

// SSEEvent is the typed envelope sent to SSE clients.
type SSEEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type sseClient struct {
	events chan SSEEvent
}

// EventHub manages SSE client connections and broadcasts.
type EventHub struct {
	mu        sync.RWMutex
	clients   map[*sseClient]struct{}
	broadcast chan SSEEvent
	stopChan  chan struct{}
	onConnect func()
}

// NewEventHub creates a new EventHub. onConnect runs for every new SSE
// client; the router uses it as a foreground signal so a reconnecting
// console forces a fresh poll.
func NewEventHub(onConnect func()) *EventHub {
	return &EventHub{
		clients:   make(map[*sseClient]struct{}),
		broadcast: make(chan SSEEvent, 256),
		stopChan:  make(chan struct{}),
		onConnect: onConnect,
	}
}

// Start begins the event fan-out loop.
func (h *EventHub) Start() {
	go h.run()
}

// Stop shuts down the event hub.
func (h *EventHub) Stop() {
	select {
	case <-h.stopChan:
	default:
		close(h.stopChan)
	}
}

// Broadcast sends an event to all connected clients.
func (h *EventHub) Broadcast(evt SSEEvent) {
	select {
	case h.broadcast <- evt:
	default:
		// Drop if broadcast buffer is full
	}
}

func (h *EventHub) register(c *sseClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *EventHub) unregister(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	close(c.events)
	h.mu.Unlock()
}

func (h *EventHub) run() {
	for {
		select {
		case <-h.stopChan:
			return
		case evt := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.events <- evt:
				default:
					// Client buffer full, drop event
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleSSE is the HTTP handler for SSE connections.
func (h *EventHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := &sseClient{events: make(chan SSEEvent, 64)}
	h.register(client)
	defer h.unregister(client)

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	if h.onConnect != nil {
		h.onConnect()
	}

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.stopChan:
			return
		case evt, ok := <-client.events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// SetupEngineListeners wires engine events to SSE broadcasts.
func (h *EventHub) SetupEngineListeners(eng *engine.Engine) {
	eng.Events.Subscribe(func(evt engine.Event) {
		var sseEvt SSEEvent

		switch evt.Type {
		case engine.EventAlertPresented:
			p := evt.Payload.(engine.AlertPresentedEvent)
			sseEvt = SSEEvent{Type: "alert-presented", Data: p}
		case engine.EventCountdownTick:
			p := evt.Payload.(engine.CountdownTickEvent)
			sseEvt = SSEEvent{Type: "countdown-tick", Data: p}
		case engine.EventAlertResolved:
			p := evt.Payload.(engine.AlertResolvedEvent)
			sseEvt = SSEEvent{Type: "alert-resolved", Data: p}
		case engine.EventPollSucceeded:
			p := evt.Payload.(engine.PollSucceededEvent)
			sseEvt = SSEEvent{Type: "poll-status", Data: map[string]interface{}{"ok": true, "count": p.Count}}
		case engine.EventPollFailed:
			p := evt.Payload.(engine.PollFailedEvent)
			sseEvt = SSEEvent{Type: "poll-status", Data: map[string]interface{}{"ok": false, "error": p.Error}}
		case engine.EventSessionExpired:
			p := evt.Payload.(engine.SessionExpiredEvent)
			sseEvt = SSEEvent{Type: "session-status", Data: map[string]interface{}{"active": false, "error": p.Error}}
		case engine.EventSessionReset:
			sseEvt = SSEEvent{Type: "session-status", Data: map[string]interface{}{"active": true}}
		case engine.EventOrdersMerged:
			p := evt.Payload.(engine.OrdersMergedEvent)
			sseEvt = SSEEvent{Type: "orders-update", Data: map[string]interface{}{"count": len(p.Orders), "novel": p.Novel}}
		default:
			return
		}

		h.Broadcast(sseEvt)
	})

	log.Printf("SSE listeners wired to engine events")
}
