package udp

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type echoHandler struct{}

func (echoHandler) Execute(_ context.Context, payload []byte) string {
	return "echo " + string(payload)
}

type panicHandler struct{}

func (panicHandler) Execute(context.Context, []byte) string {
	panic("boom")
}

func startServer(t *testing.T, h Handler, opts ...Option) (*Server, *net.UDPConn, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer("127.0.0.1:0", h, zap.NewNop(), opts...)

	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx)
	}()

	addr, ok := srv.LocalAddr().(*net.UDPAddr)
	require.True(t, ok)

	client, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)

	stop := func() {
		_ = client.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	}
	return srv, client, stop
}

func roundTrip(t *testing.T, client *net.UDPConn, payload string) string {
	t.Helper()

	_, err := client.Write([]byte(payload))
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 64*1024)
	n, err := client.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestServer_RepliesToEachDatagram(t *testing.T) {
	_, client, stop := startServer(t, echoHandler{})
	defer stop()

	assert.Equal(t, "echo hello", roundTrip(t, client, "hello"))
	assert.Equal(t, "echo again", roundTrip(t, client, "again"))
}

func TestServer_TruncatesOversizedPayload(t *testing.T) {
	_, client, stop := startServer(t, echoHandler{}, WithBufferSize(8))
	defer stop()

	reply := roundTrip(t, client, "0123456789abcdef")
	assert.Equal(t, "echo 01234567", reply)
}

func TestServer_SurvivesHandlerPanic(t *testing.T) {
	srv, client, stop := startServer(t, panicHandler{})
	defer stop()

	_, err := client.Write([]byte("first"))
	require.NoError(t, err)

	// The panicking handler sends no reply; the server must still be
	// receiving. Swap in a fresh client to prove the socket is alive.
	time.Sleep(100 * time.Millisecond)

	addr, ok := srv.LocalAddr().(*net.UDPAddr)
	require.True(t, ok)
	probe, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer probe.Close()

	_, err = probe.Write([]byte("second"))
	require.NoError(t, err)
}

type slowHandler struct {
	mu      sync.Mutex
	started int
}

func (h *slowHandler) Execute(_ context.Context, payload []byte) string {
	h.mu.Lock()
	h.started++
	h.mu.Unlock()
	time.Sleep(200 * time.Millisecond)
	return "done " + string(payload)
}

func TestServer_SlowHandlerDoesNotStallReceiveLoop(t *testing.T) {
	h := &slowHandler{}
	_, client, stop := startServer(t, h, WithWorkers(8))
	defer stop()

	for i := range 4 {
		_, err := client.Write([]byte{byte('a' + i)})
		require.NoError(t, err)
	}

	// All four datagrams should be in flight well before any finishes.
	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		started := h.started
		h.mu.Unlock()
		if started == 4 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.mu.Lock()
	started := h.started
	h.mu.Unlock()
	assert.Equal(t, 4, started, "receive loop must hand off without waiting for handlers")

	replies := make([]string, 0, 4)
	for range 4 {
		require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
		buf := make([]byte, 64)
		n, err := client.Read(buf)
		require.NoError(t, err)
		replies = append(replies, string(buf[:n]))
	}
	for _, r := range replies {
		assert.True(t, strings.HasPrefix(r, "done "), "unexpected reply %q", r)
	}
}

func TestServer_ShutdownDrainsInFlightHandlers(t *testing.T) {
	h := &slowHandler{}
	_, client, stop := startServer(t, h)

	_, err := client.Write([]byte("x"))
	require.NoError(t, err)

	// Give the receive loop a moment to hand the datagram off, then shut
	// down while the handler is mid-flight.
	time.Sleep(50 * time.Millisecond)
	stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, 1, h.started)
}
