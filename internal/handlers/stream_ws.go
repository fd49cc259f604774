package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/campuswatch/campuswatch/internal/api"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/store"
	"github.com/gorilla/websocket"
)

// Stream event types delivered over /ws/incidents.
const (
	StreamEventSnapshot        = "snapshot"
	StreamEventIncidentCreated = "incident_created"
	StreamEventIncidentUpdated = "incident_updated"
)

// StreamEvent is one message on the incident change stream.
type StreamEvent struct {
	Type string `json:"type"`

	// Incident is set for single-incident events.
	Incident *api.IncidentResponse `json:"incident,omitempty"`

	// Incidents is set for the snapshot delivered on subscribe.
	Incidents []api.IncidentResponse `json:"incidents,omitempty"`
}

const subscriberBuffer = 64

// StreamHandler fans incident changes out to websocket subscribers. It
// keeps a mirror of the incident set so a new subscriber gets a consistent
// snapshot first and never has to race a separate refresh call against the
// stream.
type StreamHandler struct {
	upgrader websocket.Upgrader
	mirror   *store.Mirror

	mu          sync.Mutex
	subscribers map[chan StreamEvent]struct{}
}

// NewStreamHandler creates a new incident stream handler.
func NewStreamHandler(mirror *store.Mirror) *StreamHandler {
	return &StreamHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Cross-origin browsers are expected; auth happens in the
				// JWT middleware before the upgrade.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		mirror:      mirror,
		subscribers: make(map[chan StreamEvent]struct{}),
	}
}

// SetupRoutes configures WebSocket routes
func (h *StreamHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/incidents", h.HandleWebSocket)
}

// IncidentCreated implements the event sink for new incidents.
func (h *StreamHandler) IncidentCreated(incident database.Incident) {
	h.mirror.Upsert(incident)
	resp := api.IncidentToResponse(incident)
	h.broadcast(StreamEvent{Type: StreamEventIncidentCreated, Incident: &resp})
}

// IncidentUpdated implements the event sink for changed incidents
// (status transitions and duplicate-counter increments).
func (h *StreamHandler) IncidentUpdated(incident database.Incident) {
	h.mirror.Upsert(incident)
	resp := api.IncidentToResponse(incident)
	h.broadcast(StreamEvent{Type: StreamEventIncidentUpdated, Incident: &resp})
}

// Subscribe registers a new event channel and returns it with the snapshot
// that precedes it. The returned cancel func must be called when done.
func (h *StreamHandler) Subscribe() (StreamEvent, <-chan StreamEvent, func()) {
	ch := make(chan StreamEvent, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	snapshot := StreamEvent{
		Type:      StreamEventSnapshot,
		Incidents: api.IncidentsToResponses(h.mirror.Snapshot()),
	}

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return snapshot, ch, cancel
}

// SubscriberCount returns the number of connected subscribers.
func (h *StreamHandler) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// broadcast delivers an event to every subscriber. A subscriber that has
// fallen subscriberBuffer events behind is dropped; its client reconnects
// and recovers through the snapshot.
func (h *StreamHandler) broadcast(event StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			delete(h.subscribers, ch)
			close(ch)
			log.Printf("StreamHandler: dropped slow subscriber (%d total)", len(h.subscribers))
		}
	}
}

// HandleWebSocket handles GET /ws/incidents.
func (h *StreamHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("StreamHandler: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshot, events, cancel := h.Subscribe()
	defer cancel()

	if err := conn.WriteJSON(snapshot); err != nil {
		log.Printf("StreamHandler: failed to send snapshot: %v", err)
		return
	}

	// Reader goroutine: the client never sends application messages, but
	// reading is required to process close frames and detect disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				// Dropped as a slow consumer.
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
