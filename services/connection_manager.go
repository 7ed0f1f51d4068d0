package services

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"accident-severity-api/observability"
)

const (
	MessagePrediction   = "prediction"
	MessageError        = "error"
	MessageModelUpdate  = "model_update"
	MessageSystemStatus = "system_status"
)

// Message is the envelope for everything sent to streaming clients.
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultWriteTimeout bounds a single write to a streaming client.
const DefaultWriteTimeout = 10 * time.Second

// JSONConn is the part of a websocket connection the manager needs.
type JSONConn interface {
	WriteJSON(v any) error
	Close() error
}

// deadlineConn is implemented by *websocket.Conn. Connections without it are
// written to without a deadline.
type deadlineConn interface {
	SetWriteDeadline(t time.Time) error
}

type client struct {
	conn        JSONConn
	connectedAt time.Time
	writeMu     sync.Mutex
	predictions atomic.Int64
}

type ConnectionInfo struct {
	ID               string    `json:"id"`
	ConnectedAt      time.Time `json:"connected_at"`
	PredictionsCount int       `json:"predictions_count"`
}

type ConnectionStats struct {
	ActiveConnections int              `json:"active_connections"`
	TotalPredictions  int              `json:"total_predictions"`
	Connections       []ConnectionInfo `json:"connections_data"`
}

// ConnectionManager tracks streaming clients by connection id. Writes to a
// single connection are serialized; a failed write drops only that client.
type ConnectionManager struct {
	logger       *slog.Logger
	writeTimeout time.Duration

	mu      sync.RWMutex
	clients map[string]*client
}

func NewConnectionManager(logger *slog.Logger) *ConnectionManager {
	return &ConnectionManager{
		logger:       logger.With("component", "ws"),
		writeTimeout: DefaultWriteTimeout,
		clients:      make(map[string]*client),
	}
}

// Connect registers conn and returns its id.
func (m *ConnectionManager) Connect(conn JSONConn) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.clients[id] = &client{conn: conn, connectedAt: time.Now().UTC()}
	n := len(m.clients)
	m.mu.Unlock()

	observability.WSConnections.Set(float64(n))
	m.logger.Info("websocket connected", "connection_id", id, "total", n)
	return id
}

// Disconnect forgets id and closes its connection. Unknown ids are ignored.
func (m *ConnectionManager) Disconnect(id string) {
	m.mu.Lock()
	c, ok := m.clients[id]
	delete(m.clients, id)
	n := len(m.clients)
	m.mu.Unlock()
	if !ok {
		return
	}

	c.conn.Close()
	observability.WSConnections.Set(float64(n))
	m.logger.Info("websocket disconnected", "connection_id", id, "total", n)
}

// Send writes msg to one client, dropping the client if the write fails.
func (m *ConnectionManager) Send(id string, msg Message) error {
	m.mu.RLock()
	c, ok := m.clients[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	c.writeMu.Lock()
	if dc, ok := c.conn.(deadlineConn); ok {
		dc.SetWriteDeadline(time.Now().Add(m.writeTimeout))
	}
	err := c.conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err == nil && msg.Type == MessagePrediction {
		c.predictions.Add(1)
	}

	if err != nil {
		m.logger.Warn("websocket send failed", "connection_id", id, "error", err)
		m.Disconnect(id)
	}
	return err
}

// Broadcast sends msg to every client concurrently and waits for the
// writes. A stalled client holds up only its own write.
func (m *ConnectionManager) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	m.mu.RLock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Send(id, msg)
		}()
	}
	wg.Wait()
}

func (m *ConnectionManager) BroadcastModelUpdate(u ModelUpdate) {
	m.Broadcast(Message{Type: MessageModelUpdate, Data: u})
}

func (m *ConnectionManager) BroadcastSystemStatus(status any) {
	m.Broadcast(Message{Type: MessageSystemStatus, Data: status})
}

func (m *ConnectionManager) Stats() ConnectionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := ConnectionStats{
		ActiveConnections: len(m.clients),
		Connections:       make([]ConnectionInfo, 0, len(m.clients)),
	}
	for id, c := range m.clients {
		n := int(c.predictions.Load())
		st.TotalPredictions += n
		st.Connections = append(st.Connections, ConnectionInfo{
			ID:               id,
			ConnectedAt:      c.connectedAt,
			PredictionsCount: n,
		})
	}
	sort.Slice(st.Connections, func(i, j int) bool {
		return st.Connections[i].ConnectedAt.Before(st.Connections[j].ConnectedAt)
	})
	return st
}

// Close disconnects every client.
func (m *ConnectionManager) Close() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		m.Disconnect(id)
	}
}
