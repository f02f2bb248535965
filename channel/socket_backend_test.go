package channel

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketBackendRequestReply(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	del := &replyingDelegate{}
	backend := NewSocketBackend(server, 0)
	ch := New(backend, del)
	require.NoError(t, ch.Start())

	_, err := client.Write([]byte(`[1,"hello"]`))
	require.NoError(t, err)

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,"ack"]`, string(buf[:n]))
}

func TestSocketBackendRequestSplitAcrossWrites(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	del := &replyingDelegate{}
	backend := NewSocketBackend(server, 0)
	ch := New(backend, del)
	require.NoError(t, ch.Start())

	full := []byte(`[7,"split across two writes"]`)
	half := len(full) / 2

	done := make(chan struct{})
	go func() {
		_, _ = client.Write(full[:half])
		time.Sleep(20 * time.Millisecond)
		_, _ = client.Write(full[half:])
		close(done)
	}()

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.JSONEq(t, `[7,"ack"]`, string(buf[:n]))

	<-done
}

func TestSocketBackendGracefulClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	del := &recordingDelegate{}
	backend := NewSocketBackend(server, 0)
	ch := New(backend, del)
	require.NoError(t, ch.Start())

	done := make(chan struct{})
	go func() {
		_ = ch.Send(ExCommand("write"))
		ch.PrepareToClose()
		close(done)
	}()

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.JSONEq(t, `["ex","write"]`, string(buf[:n]))

	<-done
}

func TestSocketBackendWriteBufferFull(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	del := &recordingDelegate{}
	backend := NewSocketBackend(server, 8)
	_ = New(backend, del)

	_, err := backend.Write([]byte("0123456789"))
	assert.ErrorIs(t, err, ErrWriteBufferFull)
}

func TestSocketBackendWriteAfterCloseFails(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	del := &recordingDelegate{}
	backend := NewSocketBackend(server, 0)
	ch := New(backend, del)
	require.NoError(t, ch.Start())

	ch.Stop()
	waitFor(t, time.Second, func() bool {
		_, err := backend.Write([]byte("x"))
		return err == ErrBackendClosed
	})
}

func TestConnectionManagerOpenAndRemove(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	mgr := NewConnectionManager(0)
	del := &recordingDelegate{}

	conn, err := mgr.Open(server, del)
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.Count())

	conn.Channel.Stop()
	waitFor(t, time.Second, func() bool { return mgr.Count() == 0 })
}
