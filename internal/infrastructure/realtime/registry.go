package realtime

import (
	"sync"

	"github.com/sehabur/bookmate-backend/internal/infrastructure/metrics"
)

// Registry is the process-local presence table: it maps each connected user
// to their single active Connection. It owns all mutation of that mapping;
// callers interact only through Join, Leave, Lookup and Notify.
//
// State is in-memory only and rebuilt from scratch after a restart.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*Connection // userID -> active connection
	conns map[string]string      // connectionID -> userID
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*Connection),
		conns: make(map[string]string),
	}
}

// Join registers conn as the active connection for userID. A re-join from the
// same user overwrites the previous entry; the replaced socket is closed after
// the swap so at most one live connection exists per user.
func (r *Registry) Join(userID string, conn *Connection) {
	var previous *Connection

	r.mu.Lock()
	if existing, ok := r.users[userID]; ok && existing.ID != conn.ID {
		previous = existing
		delete(r.conns, existing.ID)
	}
	r.users[userID] = conn
	r.conns[conn.ID] = userID
	online := len(r.users)
	r.mu.Unlock()

	metrics.UsersOnline.Set(float64(online))

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Leave removes every entry bound to the given connection id. A socket can
// accumulate more than one user binding by re-identifying, so removal sweeps
// the user table rather than trusting the reverse map alone. Late or
// duplicate disconnect signals are a no-op, and a Leave for a connection that
// was already replaced never evicts the newer session.
func (r *Registry) Leave(connectionID string) {
	r.mu.Lock()
	delete(r.conns, connectionID)
	for userID, conn := range r.users {
		if conn.ID == connectionID {
			delete(r.users, userID)
		}
	}
	online := len(r.users)
	r.mu.Unlock()

	metrics.UsersOnline.Set(float64(online))
}

// Lookup returns the active connection for userID. Absence is a normal state,
// reported via ok=false rather than an error.
func (r *Registry) Lookup(userID string) (*Connection, bool) {
	r.mu.RLock()
	conn, ok := r.users[userID]
	r.mu.RUnlock()
	return conn, ok
}

// Online reports how many users currently have a live connection.
func (r *Registry) Online() int {
	r.mu.RLock()
	n := len(r.users)
	r.mu.RUnlock()
	return n
}

// Notify pushes an event to the user's connection if one is present.
// Delivery is best-effort: it returns false when the user is offline or the
// enqueue fails, and never surfaces an error to the caller.
func (r *Registry) Notify(userID string, event string, data any) bool {
	conn, ok := r.Lookup(userID)
	if !ok {
		metrics.LivePushes.WithLabelValues(event, "absent").Inc()
		return false
	}
	if err := conn.SendEvent(event, data); err != nil {
		metrics.LivePushes.WithLabelValues(event, "absent").Inc()
		return false
	}
	metrics.LivePushes.WithLabelValues(event, "delivered").Inc()
	return true
}

// Close terminates all tracked connections and clears the table.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.users))
	for _, conn := range r.users {
		conns = append(conns, conn)
	}
	r.users = make(map[string]*Connection)
	r.conns = make(map[string]string)
	r.mu.Unlock()

	metrics.UsersOnline.Set(0)

	for _, conn := range conns {
		conn.Close(1001, "server shutdown")
	}
}
