package channel

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  chan struct{}
	buf bytes.Buffer
}

func newSyncBuffer() *syncBuffer {
	s := &syncBuffer{mu: make(chan struct{}, 1)}
	s.mu <- struct{}{}
	return s
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	<-s.mu
	defer func() { s.mu <- struct{}{} }()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	<-s.mu
	defer func() { s.mu <- struct{}{} }()
	return s.buf.String()
}

func TestStreamBackendRequestReply(t *testing.T) {
	r, w := io.Pipe()
	out := newSyncBuffer()

	del := &replyingDelegate{}
	backend := NewStreamBackend(r, out)
	ch := New(backend, del)
	require.NoError(t, ch.Start())

	go func() {
		_, _ = w.Write([]byte(`[1,"hi"]`))
	}()

	waitFor(t, time.Second, func() bool { return out.String() != "" })
	assert.JSONEq(t, `[1,"ack"]`, out.String())

	w.Close()
}

func TestStreamBackendRequestSplitAcrossReads(t *testing.T) {
	r, w := io.Pipe()
	out := newSyncBuffer()

	del := &replyingDelegate{}
	backend := NewStreamBackend(r, out)
	ch := New(backend, del)
	require.NoError(t, ch.Start())

	full := []byte(`[4,"split across two pipe writes"]`)
	half := len(full) / 2

	go func() {
		_, _ = w.Write(full[:half])
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write(full[half:])
	}()

	waitFor(t, time.Second, func() bool { return out.String() != "" })
	assert.JSONEq(t, `[4,"ack"]`, out.String())

	w.Close()
}

func TestStreamBackendSendCommand(t *testing.T) {
	r, _ := io.Pipe()
	out := newSyncBuffer()

	del := &recordingDelegate{}
	backend := NewStreamBackend(r, out)
	ch := New(backend, del)
	require.NoError(t, ch.Start())

	require.NoError(t, ch.Send(NormalCommand("dd")))
	waitFor(t, time.Second, func() bool { return out.String() != "" })
	assert.JSONEq(t, `["normal","dd"]`, out.String())
}

func TestStreamBackendEOFFlushesFinalFrame(t *testing.T) {
	r, w := io.Pipe()
	out := newSyncBuffer()

	del := &recordingDelegate{}
	backend := NewStreamBackend(r, out)
	ch := New(backend, del)
	require.NoError(t, ch.Start())

	go func() {
		_, _ = w.Write([]byte(`[3,"last"]`))
		w.Close()
	}()

	select {
	case <-backend.Done():
	case <-time.After(time.Second):
		t.Fatal("stream backend never observed EOF")
	}

	waitFor(t, time.Second, func() bool {
		msgs, _, _ := del.snapshot()
		return len(msgs) == 1
	})
}
