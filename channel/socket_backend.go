package channel

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	logger "github.com/mordilloSan/go_logger/logger"
)

// DefaultMaxWriteBuffer bounds a SocketBackend's pending-write queue when
// the caller does not supply one (see spec.md §9 open question 2).
const DefaultMaxWriteBuffer = 8 << 20 // 8 MiB

const socketReadChunk = 4096

// SocketBackend is a per-TCP-connection backend: one reader goroutine feeds
// the message processor, one writer goroutine drains a bounded queue,
// preserving write order and supporting a graceful drain-then-close.
type SocketBackend struct {
	conn net.Conn
	proc *Processor

	channel *Channel

	maxWriteBuffer int

	mu               sync.Mutex
	writeBuf         []byte
	writePos         int
	preparingToClose bool
	closed           bool

	writeSignal chan struct{}
	stopCh      chan struct{}
	closeOnce   sync.Once

	onClose func()
}

// NewSocketBackend wraps conn. A maxWriteBuffer <= 0 selects
// DefaultMaxWriteBuffer.
func NewSocketBackend(conn net.Conn, maxWriteBuffer int) *SocketBackend {
	if maxWriteBuffer <= 0 {
		maxWriteBuffer = DefaultMaxWriteBuffer
	}
	return &SocketBackend{
		conn:           conn,
		proc:           NewProcessor(),
		maxWriteBuffer: maxWriteBuffer,
		writeSignal:    make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
	}
}

// OnClose registers a callback invoked exactly once, after the descriptor
// is closed. ConnectionManager uses this to remove the connection from its
// table without the backend needing to know about the manager.
func (b *SocketBackend) OnClose(fn func()) { b.onClose = fn }

func (b *SocketBackend) SetChannel(ch *Channel) {
	b.channel = ch
	b.proc.SetChannel(ch)
}

func (b *SocketBackend) Start() error {
	go b.readLoop()
	go b.writeLoop()
	return nil
}

func (b *SocketBackend) Stop() {
	b.closeDescriptor()
}

func (b *SocketBackend) PrepareToClose() {
	b.mu.Lock()
	empty := b.writePos >= len(b.writeBuf)
	if empty {
		b.mu.Unlock()
		b.closeDescriptor()
		return
	}
	b.preparingToClose = true
	b.mu.Unlock()
}

func (b *SocketBackend) closeDescriptor() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		_ = b.conn.Close()
		close(b.stopCh)
		if b.onClose != nil {
			b.onClose()
		}
	})
}

func (b *SocketBackend) Write(p []byte) (int, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0, ErrBackendClosed
	}
	if b.writePos >= len(b.writeBuf) {
		b.writeBuf = b.writeBuf[:0]
		b.writePos = 0
	}
	pending := len(b.writeBuf) - b.writePos
	if pending+len(p) > b.maxWriteBuffer {
		b.mu.Unlock()
		b.reportBackpressure(ErrWriteBufferFull)
		return 0, ErrWriteBufferFull
	}
	b.writeBuf = append(b.writeBuf, p...)
	b.mu.Unlock()

	select {
	case b.writeSignal <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (b *SocketBackend) reportBackpressure(err error) {
	ch := b.channel
	if ch == nil {
		return
	}
	if bd, ok := ch.delegate.(BackpressureDelegate); ok {
		bd.OnBackpressure(ch, err)
	}
}

func (b *SocketBackend) readLoop() {
	buf := make([]byte, 0, socketReadChunk)
	tmp := make([]byte, socketReadChunk)
	for {
		n, err := b.conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			buf = b.drain(buf)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debugf("socket backend: peer closed connection")
			} else {
				logger.Warnf("socket backend: read error: %v", err)
			}
			b.PrepareToClose()
			return
		}
	}
}

func (b *SocketBackend) drain(buf []byte) []byte {
	for len(buf) > 0 {
		n, ok, err := b.proc.Process(buf)
		if !ok {
			if errors.Is(err, ErrIncompleteFrame) {
				// buf holds a truncated prefix of a value split across
				// reads; wait for the rest instead of discarding it.
				return buf
			}
			time.Sleep(time.Millisecond)
			continue
		}
		if err != nil {
			logger.Warnf("socket backend: frame error: %v", err)
			return buf[:0]
		}
		if n == 0 {
			return buf
		}
		buf = buf[n:]
	}
	return buf
}

func (b *SocketBackend) writeLoop() {
	for {
		select {
		case <-b.writeSignal:
			b.flush()
		case <-b.stopCh:
			return
		}
	}
}

func (b *SocketBackend) flush() {
	for {
		b.mu.Lock()
		if b.writePos >= len(b.writeBuf) {
			b.mu.Unlock()
			return
		}
		pending := append([]byte(nil), b.writeBuf[b.writePos:]...)
		b.mu.Unlock()

		n, err := b.conn.Write(pending)

		b.mu.Lock()
		b.writePos += n
		emptied := b.writePos >= len(b.writeBuf)
		if emptied {
			b.writeBuf = b.writeBuf[:0]
			b.writePos = 0
		}
		preparing := b.preparingToClose
		b.mu.Unlock()

		if err != nil {
			logger.Warnf("socket backend: write error: %v", err)
			b.closeDescriptor()
			return
		}
		if emptied {
			if preparing {
				b.closeDescriptor()
			}
			return
		}
	}
}
