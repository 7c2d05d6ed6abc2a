package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/medagenda/backend/internal/domain"
)

// ConnectionManager tracks active WebSocket connections keyed by user ID.
type ConnectionManager struct {
	connections map[int64]*websocket.Conn
	names       map[int64]string

	// writeMu serializes writes per socket; conn.WriteJSON is not safe for
	// concurrent use.
	writeMu map[int64]*sync.Mutex

	mu sync.RWMutex // protects the maps themselves
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[int64]*websocket.Conn),
		names:       make(map[int64]string),
		writeMu:     make(map[int64]*sync.Mutex),
	}
}

// AddConnection registers a connection for the user. An existing connection
// for the same user is closed first: one live socket per identity.
func (cm *ConnectionManager) AddConnection(userID int64, conn *websocket.Conn, name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if oldConn, exists := cm.connections[userID]; exists {
		oldConn.Close()
	}

	cm.connections[userID] = conn
	cm.names[userID] = name
	cm.writeMu[userID] = &sync.Mutex{}
}

// RemoveConnection closes and forgets the user's connection.
func (cm *ConnectionManager) RemoveConnection(userID int64) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, exists := cm.connections[userID]; exists {
		conn.Close()
		delete(cm.connections, userID)
		delete(cm.names, userID)
		delete(cm.writeMu, userID)
	}
}

// RemoveConnectionIfMatching only removes the entry when it still points at
// the given connection, so a stale cleanup cannot tear down a newer socket.
func (cm *ConnectionManager) RemoveConnectionIfMatching(userID int64, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if currentConn, exists := cm.connections[userID]; exists && currentConn == conn {
		currentConn.Close()
		delete(cm.connections, userID)
		delete(cm.names, userID)
		delete(cm.writeMu, userID)
	}
}

// SendMessage delivers a JSON message to a connected user. A user with no
// connection is silently skipped.
func (cm *ConnectionManager) SendMessage(userID int64, message domain.ServerMessage) error {
	cm.mu.RLock()
	conn, exists := cm.connections[userID]
	mu, muExists := cm.writeMu[userID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(message)
}

// BroadcastMessage fans a message out to every connected user. Each send runs
// in its own goroutine so one slow socket does not stall the rest.
func (cm *ConnectionManager) BroadcastMessage(message domain.ServerMessage) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for userID := range cm.connections {
		go func(uid int64) {
			cm.SendMessage(uid, message)
		}(userID)
	}
}

// DisconnectUser notifies the user and closes their socket. Used when an
// account is deactivated or a session is revoked elsewhere.
func (cm *ConnectionManager) DisconnectUser(userID int64, reason string) {
	msg := domain.ServerMessage{
		Type:    "force_disconnect",
		Message: reason,
	}
	_ = cm.SendMessage(userID, msg)

	cm.RemoveConnection(userID)
}

// GetName returns the display name for a connected user.
func (cm *ConnectionManager) GetName(userID int64) (string, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	name, exists := cm.names[userID]
	return name, exists
}
