package channel

import (
	"net"
	"sync"

	"github.com/google/uuid"
	logger "github.com/mordilloSan/go_logger/logger"
)

// ConnectionManager owns every live Connection accepted by one or more
// AcceptServers, keyed by a generated id. It is the sole owner: a
// Connection's backend never holds a pointer back into the table, only an
// OnClose callback that asks the manager to forget it.
type ConnectionManager struct {
	mu             sync.Mutex
	conns          map[string]*Connection
	maxWriteBuffer int
}

// NewConnectionManager returns an empty manager. maxWriteBuffer <= 0
// selects DefaultMaxWriteBuffer for every connection it opens.
func NewConnectionManager(maxWriteBuffer int) *ConnectionManager {
	return &ConnectionManager{
		conns:          make(map[string]*Connection),
		maxWriteBuffer: maxWriteBuffer,
	}
}

// Open wraps an accepted net.Conn in a backend and Channel, registers it,
// and starts it. The delegate is shared across every connection the
// manager opens; Message.ID and the Channel argument every Delegate method
// receives are what disambiguate one connection's traffic from another's.
func (m *ConnectionManager) Open(conn net.Conn, delegate Delegate) (*Connection, error) {
	id := uuid.NewString()
	backend := NewSocketBackend(conn, m.maxWriteBuffer)
	ch := New(backend, delegate)

	c := &Connection{ID: id, conn: conn, backend: backend, Channel: ch}
	backend.OnClose(func() { m.remove(id) })

	m.mu.Lock()
	m.conns[id] = c
	m.mu.Unlock()

	logger.InfoKV("connection opened", "conn_id", id, "remote", conn.RemoteAddr().String())

	if err := ch.Start(); err != nil {
		m.remove(id)
		return nil, err
	}
	return c, nil
}

func (m *ConnectionManager) remove(id string) {
	m.mu.Lock()
	_, ok := m.conns[id]
	if ok {
		delete(m.conns, id)
	}
	m.mu.Unlock()
	if ok {
		logger.InfoKV("connection closed", "conn_id", id)
	}
}

// Close forcibly stops every connection the manager owns.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.Unlock()
	for _, c := range conns {
		c.Channel.Stop()
	}
}

// Count reports the number of live connections.
func (m *ConnectionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}
