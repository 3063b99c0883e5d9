package websocket

import (
	"sync"

	"ride-booking/pkg/logger"
)

// Manager tracks one live connection per rider.
type Manager struct {
	connections map[string]*Connection // user_id -> connection
	mu          sync.RWMutex
	log         logger.Logger
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		log:         log,
	}
}

// AddConnection registers a new connection, replacing any existing one for
// the same user.
func (m *Manager) AddConnection(userID string, conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.connections[userID]; ok {
		existing.Close()
		m.log.WithFields(logger.LogFields{
			"user_id": userID,
		}).Info("websocket_replaced", "Replacing existing connection")
	}

	m.connections[userID] = conn
	m.log.WithFields(logger.LogFields{
		"user_id": userID,
		"total":   len(m.connections),
	}).Info("websocket_connected", "New connection added")
}

func (m *Manager) RemoveConnection(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.connections[userID]; ok {
		conn.Close()
		delete(m.connections, userID)
		m.log.WithFields(logger.LogFields{
			"user_id": userID,
			"total":   len(m.connections),
		}).Info("websocket_disconnected", "Connection removed")
	}
}

// SendToUser sends a message to a specific user. A disconnected user is not
// an error.
func (m *Manager) SendToUser(userID string, message interface{}) error {
	m.mu.RLock()
	conn, ok := m.connections[userID]
	m.mu.RUnlock()

	if !ok {
		m.log.WithFields(logger.LogFields{
			"user_id": userID,
		}).Debug("websocket_user_not_connected", "User not connected")
		return nil
	}

	if err := conn.WriteJSON(message); err != nil {
		m.log.WithFields(logger.LogFields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("websocket_send_failed", err)
		m.RemoveConnection(userID)
		return err
	}

	return nil
}

func (m *Manager) IsUserConnected(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.connections[userID]
	return ok
}
