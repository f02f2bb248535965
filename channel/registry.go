package channel

import "sync"

// The registries below hold plain pointers to every AcceptServer and stdio
// Channel registered with them, so a single RunForever (or a signal
// handler) can start and stop all of them without the caller threading
// references through its own plumbing. A registered server or channel
// stays reachable until it is unregistered.

var (
	serverRegistryMu sync.RWMutex
	serverRegistry   = make(map[string]*AcceptServer)

	streamRegistryMu sync.RWMutex
	streamRegistry   = make(map[string]*Channel)
)

// RegisterServer adds s to the process-wide server registry under name.
func RegisterServer(name string, s *AcceptServer) {
	serverRegistryMu.Lock()
	defer serverRegistryMu.Unlock()
	serverRegistry[name] = s
}

// UnregisterServer removes name from the server registry.
func UnregisterServer(name string) {
	serverRegistryMu.Lock()
	defer serverRegistryMu.Unlock()
	delete(serverRegistry, name)
}

func registeredServers() []*AcceptServer {
	serverRegistryMu.RLock()
	defer serverRegistryMu.RUnlock()
	out := make([]*AcceptServer, 0, len(serverRegistry))
	for _, s := range serverRegistry {
		out = append(out, s)
	}
	return out
}

// StartAllServers calls Listen on every registered server.
func StartAllServers() {
	for _, s := range registeredServers() {
		_ = s.Listen()
	}
}

// StopAllServers calls Stop on every registered server.
func StopAllServers() {
	for _, s := range registeredServers() {
		s.Stop()
	}
}

// RegisterStreamChannel adds ch to the process-wide stdio-channel registry
// under name.
func RegisterStreamChannel(name string, ch *Channel) {
	streamRegistryMu.Lock()
	defer streamRegistryMu.Unlock()
	streamRegistry[name] = ch
}

// UnregisterStreamChannel removes name from the stdio-channel registry.
func UnregisterStreamChannel(name string) {
	streamRegistryMu.Lock()
	defer streamRegistryMu.Unlock()
	delete(streamRegistry, name)
}

func registeredStreamChannels() []*Channel {
	streamRegistryMu.RLock()
	defer streamRegistryMu.RUnlock()
	out := make([]*Channel, 0, len(streamRegistry))
	for _, ch := range streamRegistry {
		out = append(out, ch)
	}
	return out
}

// StartAllStreamChannels calls Start on every registered stdio channel.
func StartAllStreamChannels() {
	for _, ch := range registeredStreamChannels() {
		_ = ch.Start()
	}
}

// StopAllStreamChannels calls Stop on every registered stdio channel.
func StopAllStreamChannels() {
	for _, ch := range registeredStreamChannels() {
		ch.Stop()
	}
}

// RunForever starts every registered server and stdio channel, then blocks
// on the default listener group. It is meant for cmd/vimchanneld's main
// loop and never returns in normal operation; process exit (or a signal
// handler calling StopAllServers followed by os.Exit) is how it ends.
func RunForever() {
	StartAllServers()
	StartAllStreamChannels()
	DefaultListenerGroup().Wait()
	select {}
}
