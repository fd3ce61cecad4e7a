// Package radmetrics exposes Prometheus metrics for the RADIUS decoder
// daemon.
package radmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "goradius"
	subsystem = "radius"
)

// Label names for decoder metrics.
const (
	labelClientAddr = "client_addr"
	labelCode       = "code"
	labelReason     = "reason"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Decoder Metrics
// -------------------------------------------------------------------------

// Collector holds all decoder Prometheus metrics.
//
// Packet counters are labeled by the sender's address, including senders
// that are not in the configured client table:
//   - Packet counters track datagram volumes and framing drops.
//   - Pair counters track decoded attributes and raw demotions.
//   - Registration counters flag dictionary growth from unknown
//     attributes and vendors seen on the wire.
type Collector struct {
	// PacketsReceived counts datagrams received per client.
	PacketsReceived *prometheus.CounterVec

	// PacketsDropped counts datagrams dropped before pair decoding
	// (framing errors, unknown client), labeled with the reason.
	PacketsDropped *prometheus.CounterVec

	// PairsDecoded counts attribute pairs decoded per packet code.
	PairsDecoded *prometheus.CounterVec

	// RawFallbacks counts attributes demoted to raw octets after a
	// failed shape, width or child lookup.
	RawFallbacks prometheus.Counter

	// DecryptFailures counts Tunnel-Password and Ascend-Send-Secret
	// values that could not be decrypted and were kept as octets.
	DecryptFailures prometheus.Counter

	// UnknownAttrs tracks unknown attribute registrations, updated from
	// the dictionary after each packet.
	UnknownAttrs prometheus.Gauge

	// UnknownVendors tracks unknown vendor registrations.
	UnknownVendors prometheus.Gauge

	// UsersEntries tracks the number of entries loaded from the users
	// file, updated on startup and SIGHUP reload.
	UsersEntries prometheus.Gauge
}

// NewCollector creates a Collector with all decoder metrics registered
// against the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
//
// All metrics carry the "goradius_radius_" prefix (namespace_subsystem)
// to avoid collisions with other exporters.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.PacketsReceived,
		c.PacketsDropped,
		c.PairsDecoded,
		c.RawFallbacks,
		c.DecryptFailures,
		c.UnknownAttrs,
		c.UnknownVendors,
		c.UsersEntries,
	)

	return c
}

// newMetrics constructs the metric vectors without registering them.
func newMetrics() *Collector {
	return &Collector{
		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_received_total",
			Help:      "RADIUS datagrams received.",
		}, []string{labelClientAddr}),

		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_dropped_total",
			Help:      "RADIUS datagrams dropped before pair decoding.",
		}, []string{labelClientAddr, labelReason}),

		PairsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pairs_decoded_total",
			Help:      "Attribute pairs decoded, by packet code.",
		}, []string{labelCode}),

		RawFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "raw_fallbacks_total",
			Help:      "Attributes demoted to raw octets after failed validation.",
		}),

		DecryptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "decrypt_failures_total",
			Help:      "Encrypted attribute values kept as octets after a decryption failure.",
		}),

		UnknownAttrs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unknown_attributes",
			Help:      "Unknown attributes registered into the dictionary from the wire.",
		}),

		UnknownVendors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unknown_vendors",
			Help:      "Unknown vendors registered into the dictionary from the wire.",
		}),

		UsersEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "users_entries",
			Help:      "Entries loaded from the users file.",
		}),
	}
}
