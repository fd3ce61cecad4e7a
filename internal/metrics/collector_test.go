package radmetrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	radmetrics "github.com/dantte-lp/goradius/internal/metrics"
)

func TestNewCollectorRegistersAll(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radmetrics.NewCollector(reg)

	c.PacketsReceived.WithLabelValues("10.0.0.1").Inc()
	c.PacketsDropped.WithLabelValues("10.0.0.1", "malformed").Inc()
	c.PairsDecoded.WithLabelValues("Access-Request").Add(3)
	c.RawFallbacks.Inc()
	c.DecryptFailures.Inc()
	c.UnknownAttrs.Set(2)
	c.UnknownVendors.Set(1)
	c.UsersEntries.Set(7)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	want := map[string]bool{
		"goradius_radius_packets_received_total": false,
		"goradius_radius_packets_dropped_total":  false,
		"goradius_radius_pairs_decoded_total":    false,
		"goradius_radius_raw_fallbacks_total":    false,
		"goradius_radius_decrypt_failures_total": false,
		"goradius_radius_unknown_attributes":     false,
		"goradius_radius_unknown_vendors":        false,
		"goradius_radius_users_entries":          false,
	}

	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestCollectorCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radmetrics.NewCollector(reg)

	c.PairsDecoded.WithLabelValues("Access-Request").Add(5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found *dto.Metric
	for _, mf := range families {
		if mf.GetName() == "goradius_radius_pairs_decoded_total" {
			found = mf.GetMetric()[0]
		}
	}
	if found == nil {
		t.Fatal("pairs_decoded_total not gathered")
	}
	if got := found.GetCounter().GetValue(); got != 5 {
		t.Fatalf("value = %v, want 5", got)
	}
	if got := found.GetLabel()[0].GetValue(); got != "Access-Request" {
		t.Fatalf("label = %q", got)
	}
}
