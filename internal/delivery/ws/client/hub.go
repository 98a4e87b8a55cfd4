package ws_client

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/KentaroHashi12/Futarigohan/internal/model"
	usecase_deck "github.com/KentaroHashi12/Futarigohan/internal/usecase/deck"
)

const (
	EventView  = "VIEW"
	EventMatch = "MATCH"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Conn struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	ClientID uuid.UUID
}

// Hub fans client state changes out to the websockets watching them.
type Hub struct {
	mu sync.RWMutex

	// Several tabs may watch the same client.
	clients map[uuid.UUID]map[*Conn]bool

	logger *slog.Logger
}

func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[*Conn]bool),
		logger:  logger,
	}
}

func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[conn.ClientID]; !ok {
		h.clients[conn.ClientID] = make(map[*Conn]bool)
	}
	h.clients[conn.ClientID][conn] = true

	h.logger.Info("websocket registered", "client_id", conn.ClientID)
}

func (h *Hub) Remove(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *Conn) {
	conns, ok := h.clients[conn.ClientID]
	if !ok || !conns[conn] {
		return
	}
	delete(conns, conn)
	close(conn.Send)
	if len(conns) == 0 {
		delete(h.clients, conn.ClientID)
	}
	h.logger.Info("websocket unregistered", "client_id", conn.ClientID)
}

// Drop disconnects every websocket of a closed client.
func (h *Hub) Drop(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients[id] {
		h.removeLocked(conn)
	}
}

// Publish matches usecase_deck.ClientListener.
func (h *Hub) Publish(id uuid.UUID, v usecase_deck.View, celebrated []model.Recipe) {
	for _, r := range celebrated {
		h.Send(id, Event{Type: EventMatch, Payload: r})
	}
	h.Send(id, Event{Type: EventView, Payload: v})
}

func (h *Hub) Send(id uuid.UUID, event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients[id] {
		select {
		case conn.Send <- msg:
		default:
			// Slow reader; it reconnects and gets a fresh view.
			h.removeLocked(conn)
		}
	}
}

func (h *Hub) Count(id uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[id])
}

func (h *Hub) StartReading(conn *Conn) {
	defer func() {
		h.Remove(conn)
		conn.Conn.Close()
	}()

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) StartWriting(conn *Conn) {
	defer conn.Conn.Close()

	for message := range conn.Send {
		if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
	_ = conn.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
