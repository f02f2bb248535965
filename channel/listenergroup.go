package channel

import "sync"

// ListenerGroup is a process-wide wait group: every AcceptServer adds
// itself before its accept loop starts and signals done when the loop
// exits, so RunForever can block until every listener in the process has
// wound down.
type ListenerGroup struct {
	wg sync.WaitGroup
}

// NewListenerGroup returns an empty listener group.
func NewListenerGroup() *ListenerGroup { return &ListenerGroup{} }

func (g *ListenerGroup) Add(n int) { g.wg.Add(n) }
func (g *ListenerGroup) Done()     { g.wg.Done() }
func (g *ListenerGroup) Wait()     { g.wg.Wait() }

var defaultListenerGroup = NewListenerGroup()

// DefaultListenerGroup returns the package-wide listener group that
// RunForever waits on; an AcceptServer created with a nil group joins it.
func DefaultListenerGroup() *ListenerGroup { return defaultListenerGroup }
