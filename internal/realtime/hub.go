// Package realtime delivers freshly persisted chat messages to the
// recipient's live websocket connections.  The hub is process-local
// state: a mapping from user id to the set of open connections for that
// user.  It is rebuilt from scratch on every connect/disconnect and
// holds nothing durable; the message store remains the source of truth
// and offline recipients pick messages up on their next history fetch.
package realtime

import (
	"sync"
	"time"
)

// Conn is the subset of a websocket connection the hub needs.  The
// gorilla *websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
}

// Session wraps one live connection with a write lock, since websocket
// connections do not allow concurrent writers.
type Session struct {
	conn Conn
	mu   sync.Mutex
}

func (s *Session) send(v interface{}, deadline time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(deadline))
	return s.conn.WriteJSON(v)
}

// Envelope is the wire format for server-pushed events.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// EventMessage is emitted to the recipient's room after each
// successfully persisted chat message.
const EventMessage = "receiveMessage"

// Hub tracks live connections per user id.  A user may hold several
// connections (multiple tabs/devices); all of them receive emissions.
type Hub struct {
	mu           sync.RWMutex
	rooms        map[uint64]map[*Session]struct{}
	writeTimeout time.Duration
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:        make(map[uint64]map[*Session]struct{}),
		writeTimeout: 5 * time.Second,
	}
}

// Join registers a connection under the given user id and returns the
// session handle used to leave later.
func (h *Hub) Join(userID uint64, conn Conn) *Session {
	s := &Session{conn: conn}
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[userID] = room
	}
	room[s] = struct{}{}
	return s
}

// Leave removes a session.  Removing an already-removed session is a
// no-op, so deferred cleanup paths can call it unconditionally.
func (h *Hub) Leave(userID uint64, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[userID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
}

// Emit sends an event to every live connection of the given user.  No
// connection means no delivery and no error: the persisted store is the
// durable queue.  Each write runs on its own goroutine bounded by the
// write deadline, so a stalled recipient socket never delays the
// caller.  Failed writes are ignored for the same reason; the read
// loop will notice a dead connection and unregister it.
func (h *Hub) Emit(userID uint64, event string, data interface{}) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.rooms[userID]))
	for s := range h.rooms[userID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	env := Envelope{Event: event, Data: data}
	for _, s := range sessions {
		go func(s *Session) {
			_ = s.send(env, h.writeTimeout)
		}(s)
	}
}

// ConnCount reports the number of live connections for a user.
func (h *Hub) ConnCount(userID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}
