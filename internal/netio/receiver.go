package netio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
)

// ErrNoListeners indicates that Run was called without any listeners.
var ErrNoListeners = errors.New("receiver run: no listeners provided")

// Handler consumes received RADIUS datagrams. This interface decouples
// the receiver from the decoding engine.
type Handler interface {
	// HandlePacket processes one datagram from peer. The buffer is
	// owned by the receiver and reused after the call returns; the
	// handler must copy anything it keeps.
	HandlePacket(buf []byte, peer netip.AddrPort)
}

// Receiver reads RADIUS datagrams from one or more Listeners and hands
// them to a Handler.
//
// The Receiver handles:
//   - Buffer management via PacketPool
//   - Context-aware graceful shutdown
type Receiver struct {
	handler Handler
	logger  *slog.Logger
}

// NewReceiver creates a Receiver that feeds datagrams to handler.
func NewReceiver(handler Handler, logger *slog.Logger) *Receiver {
	return &Receiver{
		handler: handler,
		logger:  logger.With(slog.String("component", "netio.receiver")),
	}
}

// Run reads from all listeners concurrently until ctx is cancelled.
// Each listener gets its own goroutine. Run blocks until all listener
// goroutines complete.
//
// Errors from individual reads are logged but do not stop the receiver.
// Only context cancellation terminates the loop.
func (r *Receiver) Run(ctx context.Context, listeners ...*Listener) error {
	if len(listeners) == 0 {
		return fmt.Errorf("receiver: %w", ErrNoListeners)
	}

	done := make(chan struct{}, len(listeners))

	for _, ln := range listeners {
		go func(l *Listener) {
			defer func() { done <- struct{}{} }()
			r.loop(ctx, l)
		}(ln)
	}

	// Closing the sockets unblocks pending reads on shutdown.
	<-ctx.Done()
	for _, ln := range listeners {
		if err := ln.Close(); err != nil {
			r.logger.Warn("listener close failed", slog.String("error", err.Error()))
		}
	}

	for range listeners {
		<-done
	}

	return nil
}

// loop is the per-listener read loop.
func (r *Receiver) loop(ctx context.Context, l *Listener) {
	for {
		buf, peer, err := l.Recv()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			r.logger.Warn("read failed", slog.String("error", err.Error()))
			continue
		}

		r.handler.HandlePacket(buf, peer)
		Release(buf)
	}
}
