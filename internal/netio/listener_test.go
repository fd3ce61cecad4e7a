package netio_test

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dantte-lp/goradius/internal/netio"
)

// newLocalListener binds an ephemeral UDP port on localhost.
func newLocalListener(t *testing.T) *netio.Listener {
	t.Helper()

	ln, err := netio.NewListener(context.Background(), netio.ListenerConfig{
		Addr: netip.MustParseAddr("127.0.0.1"),
		Port: 0,
	})
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	return ln
}

func TestListenerRecv(t *testing.T) {
	t.Parallel()

	ln := newLocalListener(t)
	defer ln.Close()

	conn, err := net.Dial("udp", ln.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	want := []byte{0x01, 0x02, 0x00, 0x14}
	if _, err := conn.Write(want); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf, peer, err := ln.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	defer netio.Release(buf)

	if string(buf) != string(want) {
		t.Fatalf("datagram = %x, want %x", buf, want)
	}
	if !peer.Addr().Unmap().IsLoopback() {
		t.Fatalf("peer = %v, want loopback", peer)
	}
}

// recordingHandler collects datagrams for assertions.
type recordingHandler struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

func (h *recordingHandler) HandlePacket(_ []byte, _ netip.AddrPort) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	if h.count == 1 {
		close(h.done)
	}
}

func TestReceiverRun(t *testing.T) {
	t.Parallel()

	ln := newLocalListener(t)

	handler := &recordingHandler{done: make(chan struct{})}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	recv := netio.NewReceiver(handler, logger)

	ctx, cancel := context.WithCancel(context.Background())

	runDone := make(chan error, 1)
	go func() {
		runDone <- recv.Run(ctx, ln)
	}()

	conn, err := net.Dial("udp", ln.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{0xde, 0xad}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-handler.done:
	case <-time.After(5 * time.Second):
		t.Fatal("datagram not delivered to handler")
	}

	cancel()

	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not stop on context cancellation")
	}
}

func TestReceiverRunNoListeners(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	recv := netio.NewReceiver(&recordingHandler{done: make(chan struct{})}, logger)

	if err := recv.Run(context.Background()); err == nil {
		t.Fatal("Run with no listeners succeeded, want error")
	}
}
