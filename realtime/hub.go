// ABOUTME: WebSocket session manager
// ABOUTME: Tracks connected sessions, room membership, and broadcast fan-out
package realtime

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is one connected client. Writes go through the send channel so a
// single goroutine owns the connection.
type Session struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

func newSession(conn *websocket.Conn) *Session {
	s := &Session{
		ID:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 64),
	}
	go s.writePump()
	return s
}

func (s *Session) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (s *Session) close() {
	close(s.send)
}

// Hub owns the lifecycle of all connected sessions. A session error never
// affects other sessions; a slow session is dropped rather than letting it
// backpressure the broadcast path.
type Hub struct {
	logger *log.Logger

	mu       sync.RWMutex
	sessions map[*Session]bool
	rooms    map[string]map[*Session]bool
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:   logger,
		sessions: make(map[*Session]bool),
		rooms:    make(map[string]map[*Session]bool),
	}
}

// Add registers a new session for the given connection.
func (h *Hub) Add(conn *websocket.Conn) *Session {
	s := newSession(conn)

	h.mu.Lock()
	h.sessions[s] = true
	h.mu.Unlock()

	h.logger.Debug("session connected", "session", s.ID)
	return s
}

// Remove deregisters a session. Safe to call for a session that was never
// registered, and safe to call twice.
func (h *Hub) Remove(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		for room, members := range h.rooms {
			delete(members, s)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
		s.close()
		h.logger.Debug("session disconnected", "session", s.ID)
	}
	h.mu.Unlock()
}

// JoinRoom adds the session to a broadcast scope. Joining twice is a no-op.
func (h *Hub) JoinRoom(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.sessions[s] {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Session]bool)
	}
	h.rooms[room][s] = true
}

// LeaveRoom removes the session from a broadcast scope.
func (h *Hub) LeaveRoom(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Rooms returns the rooms the session has joined.
func (h *Hub) Rooms(s *Session) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var rooms []string
	for room, members := range h.rooms {
		if members[s] {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// Broadcast sends data to every connected session.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast(h.snapshot(), data)
}

// BroadcastRoom sends data to the sessions in one room. Current emits are
// always global; this exists for scoped broadcast.
func (h *Hub) BroadcastRoom(room string, data []byte) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	h.broadcast(members, data)
}

func (h *Hub) snapshot() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// broadcast fans data out to the given sessions. Sends happen under the read
// lock with a membership re-check: Remove closes the send channel under the
// write lock, so a session still present here cannot have its channel closed
// mid-send. Slow sessions are collected and removed after the lock is
// released, since Remove needs the write lock.
func (h *Hub) broadcast(sessions []*Session, data []byte) {
	var slow []*Session

	h.mu.RLock()
	for _, s := range sessions {
		if !h.sessions[s] {
			continue
		}
		select {
		case s.send <- data:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.logger.Warn("session too slow, disconnecting", "session", s.ID)
		h.Remove(s)
	}
}

// ClientCount returns the number of connected sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
