package channel

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	logger "github.com/mordilloSan/go_logger/logger"
)

// Channel pairs a Backend with a Delegate: it owns the pending-replies
// table that correlates a command's negative id with the Command that
// produced it, and it's the only thing a Delegate is handed to reply or
// send further commands.
type Channel struct {
	backend  Backend
	delegate Delegate

	mu      sync.Mutex
	pending map[int]Command

	nextID int64
}

// New pairs backend and delegate into a Channel and installs the
// non-owning back-reference the backend uses to dispatch decoded messages.
func New(backend Backend, delegate Delegate) *Channel {
	ch := &Channel{
		backend:  backend,
		delegate: delegate,
		pending:  make(map[int]Command),
		nextID:   0,
	}
	backend.SetChannel(ch)
	return ch
}

// Start begins the backend's read/write goroutines.
func (c *Channel) Start() error { return c.backend.Start() }

// Stop stops the backend without a graceful drain (see Backend.Stop).
func (c *Channel) Stop() { c.backend.Stop() }

// PrepareToClose requests a graceful close once queued writes drain.
func (c *Channel) PrepareToClose() { c.backend.PrepareToClose() }

// NewCommandID returns the next negative id for correlating a command this
// process sends with Vim's eventual reply. Ids are generated in decreasing
// order starting at -1 and never reused.
func (c *Channel) NewCommandID() int {
	return int(-atomic.AddInt64(&c.nextID, 1))
}

// RespondTo replies to a Vim-originated request. body is marshaled as the
// reply's payload; msg.ID is echoed back so Vim can correlate the reply.
func (c *Channel) RespondTo(msg Message, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		logger.Errorf("channel: encode reply body: %v", err)
		return err
	}
	reply := Message{ID: msg.ID, Body: b}
	data, err := reply.Encode()
	if err != nil {
		logger.Errorf("channel: encode reply: %v", err)
		return err
	}
	_, err = c.backend.Write(data)
	return err
}

// Send transmits a command to Vim. If the command carries an id, it is
// recorded in the pending-replies table before the bytes are written, so a
// reply racing the write can never arrive before its correlation entry
// exists.
func (c *Channel) Send(cmd Command) error {
	if id, hasID := cmd.ID(); hasID && id >= 0 {
		return ErrInvalidCommandID
	}

	data, err := cmd.Encode()
	if err != nil {
		logger.Errorf("channel: encode command: %v", err)
		return err
	}

	if id, hasID := cmd.ID(); hasID {
		c.mu.Lock()
		c.pending[id] = cmd
		c.mu.Unlock()
	}

	_, err = c.backend.Write(data)
	return err
}

// dispatch routes a decoded message: positive or zero ids go to
// Delegate.OnMessage; negative ids are matched against the pending-replies
// table and routed to Delegate.OnResponseToCommand.
func (c *Channel) dispatch(msg Message) {
	if msg.ID < 0 {
		c.mu.Lock()
		cmd, ok := c.pending[msg.ID]
		if ok {
			delete(c.pending, msg.ID)
		}
		c.mu.Unlock()
		if !ok {
			logger.Warnf("channel: %v %d", ErrUnknownCommandID, msg.ID)
			return
		}
		c.delegate.OnResponseToCommand(c, msg, cmd)
		return
	}
	c.delegate.OnMessage(c, msg)
}
