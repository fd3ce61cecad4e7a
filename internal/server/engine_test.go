package server_test

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"net/netip"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dantte-lp/goradius/internal/config"
	"github.com/dantte-lp/goradius/internal/dict"
	radmetrics "github.com/dantte-lp/goradius/internal/metrics"
	"github.com/dantte-lp/goradius/internal/radius"
	"github.com/dantte-lp/goradius/internal/server"
)

// newTestEngine wires an engine with one known client and a private
// registry for metric assertions.
func newTestEngine(t *testing.T) (*server.Engine, *prometheus.Registry) {
	t.Helper()

	clients, err := config.BuildClientTable([]config.ClientConfig{
		{Network: "10.0.0.0/24", Secret: "xyzzy5461"},
	})
	if err != nil {
		t.Fatalf("BuildClientTable: %v", err)
	}

	reg := prometheus.NewRegistry()
	collector := radmetrics.NewCollector(reg)
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))

	return server.NewEngine(dict.Builtin(), clients, collector, logger), reg
}

// buildDatagram assembles an Access-Request datagram.
func buildDatagram(attrs []byte) []byte {
	buf := make([]byte, radius.HeaderSize+len(attrs))
	buf[0] = byte(radius.CodeAccessRequest)
	buf[1] = 7
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(buf)))
	copy(buf[radius.HeaderSize:], attrs)
	return buf
}

// counterValue gathers one counter's value, summed over label sets.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func TestEngineHandlePacket(t *testing.T) {
	t.Parallel()

	engine, reg := newTestEngine(t)

	attrs := []byte{0x01, 0x05, 'a', 'l', 'i', 0x05, 0x06, 0x00, 0x00, 0x00, 0x01}
	engine.HandlePacket(buildDatagram(attrs), netip.MustParseAddrPort("10.0.0.5:50000"))

	if got := counterValue(t, reg, "goradius_radius_packets_received_total"); got != 1 {
		t.Errorf("packets received = %v, want 1", got)
	}
	if got := counterValue(t, reg, "goradius_radius_pairs_decoded_total"); got != 2 {
		t.Errorf("pairs decoded = %v, want 2", got)
	}
	if got := counterValue(t, reg, "goradius_radius_packets_dropped_total"); got != 0 {
		t.Errorf("packets dropped = %v, want 0", got)
	}
}

func TestEngineDropsUnknownClient(t *testing.T) {
	t.Parallel()

	engine, reg := newTestEngine(t)

	engine.HandlePacket(buildDatagram(nil), netip.MustParseAddrPort("203.0.113.9:1024"))

	if got := counterValue(t, reg, "goradius_radius_packets_dropped_total"); got != 1 {
		t.Errorf("packets dropped = %v, want 1", got)
	}
	if got := counterValue(t, reg, "goradius_radius_pairs_decoded_total"); got != 0 {
		t.Errorf("pairs decoded = %v, want 0", got)
	}
}

func TestEngineDropsMalformed(t *testing.T) {
	t.Parallel()

	engine, reg := newTestEngine(t)

	engine.HandlePacket([]byte{0x01, 0x02}, netip.MustParseAddrPort("10.0.0.5:1024"))

	if got := counterValue(t, reg, "goradius_radius_packets_dropped_total"); got != 1 {
		t.Errorf("packets dropped = %v, want 1", got)
	}
}
