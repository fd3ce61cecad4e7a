// Package netio provides the UDP transport for the RADIUS daemon:
// listeners bound to the authentication and accounting ports and a
// context-aware receive loop feeding the decoder.
package netio

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// -------------------------------------------------------------------------
// ListenerConfig — RADIUS datagram listener configuration
// -------------------------------------------------------------------------

// ListenerConfig holds configuration for a RADIUS packet listener.
//
// Authentication uses port 1812 (RFC 2865 Section 3), accounting 1813
// (RFC 2866 Section 3).
type ListenerConfig struct {
	// Addr is the local IP address to bind to. The zero Addr binds all
	// interfaces.
	Addr netip.Addr

	// Port is the destination UDP port.
	Port uint16
}

// maxDatagram is the receive buffer size: the RFC 2865 Section 3 packet
// ceiling.
const maxDatagram = 4096

// PacketPool provides reusable receive buffers.
//
// The pool stores *[]byte (pointer to slice) to avoid interface
// allocation on Get()/Put().
var PacketPool = sync.Pool{
	New: func() any {
		buf := make([]byte, maxDatagram)
		return &buf
	},
}

// -------------------------------------------------------------------------
// Listener — RADIUS datagram receive loop
// -------------------------------------------------------------------------

// Listener wraps a UDP socket and provides a blocking receive of RADIUS
// datagrams into pooled buffers; Receiver runs the context-aware loop.
type Listener struct {
	conn *net.UDPConn
}

// NewListener binds a UDP socket per the configuration. SO_REUSEADDR is
// set so the daemon can rebind promptly after a restart.
func NewListener(ctx context.Context, cfg ListenerConfig) (*Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var soErr error
			if err := c.Control(func(fd uintptr) {
				soErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return fmt.Errorf("raw control: %w", err)
			}
			if soErr != nil {
				return fmt.Errorf("set SO_REUSEADDR: %w", soErr)
			}
			return nil
		},
	}

	local := ""
	if cfg.Addr.IsValid() {
		local = cfg.Addr.String()
	}

	pc, err := lc.ListenPacket(ctx, "udp", net.JoinHostPort(local, fmt.Sprintf("%d", cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("listen udp port %d: %w", cfg.Port, err)
	}

	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("listen udp port %d: unexpected conn type %T", cfg.Port, pc)
	}

	return &Listener{conn: conn}, nil
}

// LocalAddr returns the bound address.
func (l *Listener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Recv blocks until a datagram is received. Returns the datagram bytes
// (backed by a PacketPool buffer) and the sender address. The caller
// must return the buffer with Release after processing.
func (l *Listener) Recv() ([]byte, netip.AddrPort, error) {
	bufp := PacketPool.Get().(*[]byte)

	n, peer, err := l.conn.ReadFromUDPAddrPort(*bufp)
	if err != nil {
		PacketPool.Put(bufp)
		return nil, netip.AddrPort{}, fmt.Errorf("listener read: %w", err)
	}

	return (*bufp)[:n], peer, nil
}

// Release returns a buffer obtained from Recv to the pool.
func Release(buf []byte) {
	if cap(buf) != maxDatagram {
		return
	}
	full := buf[:maxDatagram]
	PacketPool.Put(&full)
}

// Close closes the underlying socket, unblocking Recv.
func (l *Listener) Close() error {
	if err := l.conn.Close(); err != nil {
		return fmt.Errorf("close listener: %w", err)
	}
	return nil
}
