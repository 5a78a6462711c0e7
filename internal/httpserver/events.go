package httpserver

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/DrVanHelsing/CallTech/internal/agent"
)

// Hub fans stage events out to websocket subscribers of a session.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan agent.StageEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan agent.StageEvent]struct{})}
}

// Publish never blocks; slow subscribers miss events.
func (h *Hub) Publish(ev agent.StageEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of the session's events and a cancel func
// that closes it.
func (h *Hub) Subscribe(sessionID string) (<-chan agent.StageEvent, func()) {
	ch := make(chan agent.StageEvent, 16)
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan agent.StageEvent]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], ch)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const wsWriteWait = 5 * time.Second

func (s *Server) sessionEvents(c echo.Context) error {
	id := c.Param("id")
	if s.deps.Turns != nil {
		if _, err := s.deps.Turns.Session(c.Request().Context(), id); err != nil {
			return sessionError(c, err)
		}
	}
	// Subscribe before the handshake completes so no event after it is missed.
	events, cancel := s.deps.Events.Subscribe(id)
	defer cancel()

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("events: ws upgrade error: %v", err)
		return nil
	}
	defer func() { _ = conn.Close() }()

	// Reader only detects the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return nil
		case ev := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("events: write: %v", err)
				return nil
			}
		}
	}
}
