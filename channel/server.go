package channel

import (
	"fmt"
	"net"
	"sync"

	"github.com/coreos/go-systemd/v22/activation"
	logger "github.com/mordilloSan/go_logger/logger"
)

type serverState int32

const (
	serverUnknown serverState = iota
	serverStarted
	serverStopped
	serverFailed
)

// AcceptServer owns a listener and an accept loop that hands every
// accepted connection to a ConnectionManager. Its lifecycle callbacks and
// state are visible to LifecycleManager so a process can react to startup,
// a deliberate stop, or an accept failure.
type AcceptServer struct {
	addr      string
	delegate  Delegate
	manager   *ConnectionManager
	lifecycle *LifecycleManager
	group     *ListenerGroup

	mu       sync.Mutex
	state    serverState
	listener net.Listener
}

// NewAcceptServer returns a server that will listen on addr (host:port)
// and hand every accepted connection's traffic to delegate. group defaults
// to DefaultListenerGroup when nil.
func NewAcceptServer(addr string, delegate Delegate, manager *ConnectionManager, lifecycle *LifecycleManager, group *ListenerGroup) *AcceptServer {
	if group == nil {
		group = DefaultListenerGroup()
	}
	return &AcceptServer{
		addr:      addr,
		delegate:  delegate,
		manager:   manager,
		lifecycle: lifecycle,
		group:     group,
		state:     serverUnknown,
	}
}

// State reports the server's current lifecycle state.
func (s *AcceptServer) State() serverState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Listen creates the listener (adopting a systemd-activated socket if one
// was handed to this process, falling back to net.Listen otherwise) and
// starts the accept loop. It returns once the listener exists, not once
// the accept loop exits.
func (s *AcceptServer) Listen() error {
	l, err := s.createListener()
	if err != nil {
		s.setState(serverFailed)
		if s.lifecycle != nil {
			s.lifecycle.RunFailure(err)
		}
		return err
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.group.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *AcceptServer) createListener() (net.Listener, error) {
	listeners, err := activation.Listeners()
	if err == nil && len(listeners) > 0 {
		if len(listeners) != 1 {
			return nil, fmt.Errorf("channel: expected exactly one systemd-activated listener, got %d", len(listeners))
		}
		logger.Infof("accept server: using systemd socket activation")
		return listeners[0], nil
	}
	return net.Listen("tcp", s.addr)
}

func (s *AcceptServer) acceptLoop() {
	defer s.group.Done()
	s.setState(serverStarted)
	if s.lifecycle != nil {
		s.lifecycle.RunStartup()
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.State() == serverStopped {
				if s.lifecycle != nil {
					s.lifecycle.RunShutdown()
				}
				return
			}
			s.setState(serverFailed)
			logger.Errorf("accept server: accept failed: %v", err)
			if s.lifecycle != nil {
				s.lifecycle.RunFailure(err)
			}
			return
		}

		if _, err := s.manager.Open(conn, s.delegate); err != nil {
			logger.Warnf("accept server: failed to open connection: %v", err)
		}
	}
}

// Stop closes the listener. Idempotent: a second call is a no-op. The
// accept loop's own Accept() call returning an error after Stop observes
// state == stopped and treats it as a deliberate shutdown, not a failure.
func (s *AcceptServer) Stop() {
	s.mu.Lock()
	if s.state == serverStopped {
		s.mu.Unlock()
		return
	}
	s.state = serverStopped
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		_ = l.Close()
	}
	if s.manager != nil {
		s.manager.Close()
	}
}

func (s *AcceptServer) setState(st serverState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
