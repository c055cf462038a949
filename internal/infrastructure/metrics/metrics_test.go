package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.AuctionsCreated.Inc()
	m.BidsAccepted.Inc()
	m.BidsAccepted.Inc()
	m.BidsRejected.WithLabelValues("below_highest").Inc()
	m.InstructionsEmitted.WithLabelValues("commission").Inc()

	if got := testutil.ToFloat64(m.AuctionsCreated); got != 1 {
		t.Errorf("expected 1 auction created, got %v", got)
	}
	if got := testutil.ToFloat64(m.BidsAccepted); got != 2 {
		t.Errorf("expected 2 bids accepted, got %v", got)
	}
	if got := testutil.ToFloat64(m.BidsRejected.WithLabelValues("below_highest")); got != 1 {
		t.Errorf("expected 1 rejected bid, got %v", got)
	}
	if got := testutil.ToFloat64(m.InstructionsEmitted.WithLabelValues("commission")); got != 1 {
		t.Errorf("expected 1 commission instruction, got %v", got)
	}
}

func TestMetrics_RegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.AuctionsClosed.Inc()
	m.Retractions.Inc()
	m.CommissionCollected.Observe(5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}
