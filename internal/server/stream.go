package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/forlenza/fis-control/internal/engine"
)

const (
	streamSendBuffer = 64
	streamWriteLimit = 10 * time.Second
)

// StreamMessage is one frame pushed to websocket clients.
type StreamMessage struct {
	Type      string          `json:"type"`
	Snapshot  engine.Snapshot `json:"snapshot"`
	Timestamp time.Time       `json:"timestamp"`
}

// MessageTypeSensorUpdate is the frame type carrying a fresh tick snapshot.
const MessageTypeSensorUpdate = "sensors.update"

// Hub fans tick snapshots out to connected websocket clients. It implements
// engine.TickListener so registering it with the engine is the only wiring
// required.
type Hub struct {
	mu             sync.RWMutex
	clients        map[string]chan StreamMessage
	logger         zerolog.Logger
	originPatterns []string
}

// NewHub creates a Hub accepting connections from the given origin patterns.
func NewHub(logger zerolog.Logger, originPatterns []string) *Hub {
	return &Hub{
		clients:        make(map[string]chan StreamMessage),
		logger:         logger.With().Str("component", "stream_hub").Logger(),
		originPatterns: originPatterns,
	}
}

// OnTick broadcasts the snapshot of a completed simulator tick. A client
// whose send buffer is full misses that frame rather than stalling the tick
// path.
func (h *Hub) OnTick(ts time.Time, snap engine.Snapshot) {
	msg := StreamMessage{
		Type:      MessageTypeSensorUpdate,
		Snapshot:  snap,
		Timestamp: ts,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, send := range h.clients {
		select {
		case send <- msg:
		default:
			h.logger.Warn().Str("client_id", id).Msg("client send buffer full, dropping frame")
		}
	}
}

// ClientCount returns the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and pumps snapshots until the client
// disconnects or the request context ends.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}

	id := uuid.New().String()
	send := make(chan StreamMessage, streamSendBuffer)
	h.register(id, send)
	defer h.unregister(id)

	h.logger.Info().Str("client_id", id).Int("total_clients", h.ClientCount()).Msg("stream client connected")
	defer h.logger.Info().Str("client_id", id).Msg("stream client disconnected")

	// The stream is write-only; CloseRead keeps consuming control frames and
	// cancels the context as soon as the client closes, so a disconnected
	// client deregisters even when no frames are flowing.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case msg := <-send:
			wctx, cancel := context.WithTimeout(ctx, streamWriteLimit)
			err := wsjson.Write(wctx, conn, msg)
			cancel()
			if err != nil {
				h.logger.Debug().Err(err).Str("client_id", id).Msg("stream write failed")
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}
}

func (h *Hub) register(id string, send chan StreamMessage) {
	h.mu.Lock()
	h.clients[id] = send
	h.mu.Unlock()
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}
