package channel

import "net"

// Connection is one accepted TCP connection: its socket backend and the
// channel riding on it. It never holds a pointer back to the manager that
// owns it; removal from the manager's table is driven by the backend's
// OnClose callback instead.
type Connection struct {
	ID      string
	conn    net.Conn
	backend *SocketBackend
	Channel *Channel
}

// RemoteAddr reports the peer address, for logging.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
