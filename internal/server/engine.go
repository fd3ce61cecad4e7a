// Package server holds the daemon's decoding engine and its admin HTTP
// surface: health, Prometheus metrics, and a decode API for operators.
package server

import (
	"log/slog"
	"net/netip"

	"github.com/dantte-lp/goradius/internal/config"
	"github.com/dantte-lp/goradius/internal/dict"
	radmetrics "github.com/dantte-lp/goradius/internal/metrics"
	"github.com/dantte-lp/goradius/internal/radius"
)

// Drop reasons for the packets_dropped_total metric.
const (
	dropUnknownClient = "unknown_client"
	dropMalformed     = "malformed"
	dropDecode        = "decode_error"
)

// Engine decodes received datagrams against the shared dictionary and
// client table. It implements netio.Handler.
type Engine struct {
	dict    *dict.Dictionary
	clients *config.ClientTable
	metrics *radmetrics.Collector
	logger  *slog.Logger
}

// NewEngine creates the decoding engine. The metrics collector may be nil
// in tests.
func NewEngine(d *dict.Dictionary, clients *config.ClientTable, m *radmetrics.Collector, logger *slog.Logger) *Engine {
	return &Engine{
		dict:    d,
		clients: clients,
		metrics: m,
		logger:  logger.With(slog.String("component", "server.engine")),
	}
}

// HandlePacket decodes one datagram. The buffer is only valid for the
// duration of the call; decoded pairs own their bytes.
func (e *Engine) HandlePacket(buf []byte, peer netip.AddrPort) {
	client := peer.Addr().String()
	if e.metrics != nil {
		e.metrics.PacketsReceived.WithLabelValues(client).Inc()
	}

	secret := e.clients.Secret(peer.Addr())
	if secret == nil {
		e.drop(client, dropUnknownClient)
		e.logger.Debug("datagram from unknown client", slog.String("client", client))
		return
	}

	pkt, err := radius.ParsePacket(buf)
	if err != nil {
		e.drop(client, dropMalformed)
		e.logger.Debug("malformed datagram",
			slog.String("client", client),
			slog.String("error", err.Error()),
		)
		return
	}

	stats := radius.DecodeStats{}
	dec := radius.Decoder{
		Dict:   e.dict,
		Secret: secret,
		Vector: pkt.Authenticator,
		Stats:  &stats,
	}

	pairs, err := dec.DecodePairs(pkt.Attrs)
	if err != nil {
		e.drop(client, dropDecode)
		e.logger.Warn("packet dropped",
			slog.String("client", client),
			slog.String("code", pkt.Code.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	e.observe(pkt, pairs, stats)

	if e.logger.Enabled(nil, slog.LevelDebug) {
		for p := pairs; p != nil; p = p.Next {
			e.logger.Debug("pair",
				slog.String("client", client),
				slog.String("code", pkt.Code.String()),
				slog.String("attr", p.String()),
			)
		}
	}
}

// observe updates the metrics for one decoded packet.
func (e *Engine) observe(pkt *radius.Packet, pairs *radius.Pair, stats radius.DecodeStats) {
	if e.metrics == nil {
		return
	}

	e.metrics.PairsDecoded.WithLabelValues(pkt.Code.String()).Add(float64(pairs.Len()))
	e.metrics.RawFallbacks.Add(float64(stats.RawFallbacks))
	e.metrics.DecryptFailures.Add(float64(stats.DecryptFailures))
	e.metrics.UnknownAttrs.Set(float64(e.dict.UnknownAttrCount()))
	e.metrics.UnknownVendors.Set(float64(e.dict.UnknownVendorCount()))
}

// drop counts one dropped datagram.
func (e *Engine) drop(client, reason string) {
	if e.metrics != nil {
		e.metrics.PacketsDropped.WithLabelValues(client, reason).Inc()
	}
}
