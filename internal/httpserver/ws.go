// internal/httpserver/ws.go
//
// WebSocket fan-out for live rounds. Spectators (or a second tab) subscribe
// to GET /round/{id}/ws and receive the engine event stream produced by each
// select. The engine itself stays transport-agnostic; frames are built from
// recorder events after the handler releases the round mutex.

package httpserver

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mvickers/gemfall/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origin is already enforced by the CORS layer for the REST
	// surface; the socket carries no privileged operations.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is one broadcast message.
type wsFrame struct {
	Type    string         `json:"type"`
	RoundID string         `json:"roundId"`
	Events  []engine.Event `json:"events,omitempty"`
	State   string         `json:"state,omitempty"`
}

// wsHubs tracks subscriber connections per round ID.
type wsHubs struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]bool
}

func newWSHubs() *wsHubs {
	return &wsHubs{rooms: make(map[string]map[*websocket.Conn]bool)}
}

func (h *wsHubs) add(roundID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roundID]
	if !ok {
		room = make(map[*websocket.Conn]bool)
		h.rooms[roundID] = room
	}
	room[c] = true
}

func (h *wsHubs) remove(roundID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[roundID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, roundID)
		}
	}
}

// broadcast writes a frame to every subscriber of a round, dropping
// connections that fail.
func (h *wsHubs) broadcast(roundID string, frame wsFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roundID]
	if !ok {
		return
	}
	for c := range room {
		if err := c.WriteJSON(frame); err != nil {
			log.Debug().Err(err).Str("roundId", roundID).Msg("drop ws subscriber")
			_ = c.Close()
			delete(room, c)
		}
	}
	if len(room) == 0 {
		delete(h.rooms, roundID)
	}
}

// handleRoundWS upgrades the connection and subscribes it to the round's
// event stream. The read loop exists only to detect the peer going away;
// inbound messages are discarded.
func (s *Server) handleRoundWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	live, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("roundId", id).Msg("ws upgrade")
		return
	}

	// Greet the subscriber with the current board state before joining the
	// hub: the connection allows one concurrent writer, and broadcasts may
	// start the moment it is registered.
	live.Mu.Lock()
	snap := live.Round.Snapshot()
	live.Mu.Unlock()
	_ = conn.WriteJSON(map[string]any{"type": "snapshot", "roundId": id, "board": snap})
	s.hubs.add(id, conn)

	go func() {
		defer func() {
			s.hubs.remove(id, conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
