package progress

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"farmnex/internal/ingest"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024 // subscribers only send tiny control frames
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // same-origin enforced upstream
}

// Event is one progress frame pushed to subscribers.
type Event struct {
	Type    string                `json:"type"`
	BatchID string                `json:"batch_id"`
	Payload *ingest.BatchProgress `json:"payload,omitempty"`
}

const (
	EventProgress = "progress"
	EventComplete = "complete"
)

// connection is a single WebSocket subscriber.
type connection struct {
	conn    *websocket.Conn
	send    chan []byte
	batches map[string]bool // subscribed batch IDs
}

// Hub fans batch-progress snapshots out to WebSocket subscribers. The
// orchestrator's onProgress callback feeds it; slow clients are skipped,
// never waited on — progress delivery must not stall an upload.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]bool
}

func NewHub() *Hub {
	return &Hub{connections: make(map[*connection]bool)}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connections[c] {
		delete(h.connections, c)
		close(c.send)
	}
}

// Broadcast pushes one snapshot to everyone watching the batch.
func (h *Hub) Broadcast(batchID string, snapshot ingest.BatchProgress) {
	h.publish(batchID, &Event{Type: EventProgress, BatchID: batchID, Payload: &snapshot})
}

// Complete tells subscribers the batch is finished.
func (h *Hub) Complete(batchID string) {
	h.publish(batchID, &Event{Type: EventComplete, BatchID: batchID})
}

func (h *Hub) publish(batchID string, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if c.batches[batchID] {
			select {
			case c.send <- data:
			default:
				// Client too slow — skip
			}
		}
	}
}

// Listener returns an ingest.ProgressFunc bound to one batch ID.
func (h *Hub) Listener(batchID string) ingest.ProgressFunc {
	return func(snapshot ingest.BatchProgress) {
		h.Broadcast(batchID, snapshot)
	}
}

// ServeWS upgrades the request and streams events for the given batch until
// the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, batchID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &connection{
		conn:    conn,
		send:    make(chan []byte, 64),
		batches: map[string]bool{batchID: true},
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c) // blocks until disconnect
	return nil
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var event struct {
			Type    string `json:"type"`
			BatchID string `json:"batch_id"`
		}
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}

		switch event.Type {
		case "subscribe":
			h.mu.Lock()
			c.batches[event.BatchID] = true
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			delete(c.batches, event.BatchID)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
