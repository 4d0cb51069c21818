package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_RegistersAllMetricsWithoutPanicking(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RequestsTotal.WithLabelValues("chat", "success").Inc()
	m.ClassificationTotal.WithLabelValues("SAFE").Inc()
	m.OutputFilteredTotal.Inc()
	m.BlockedTotal.Inc()
	m.CacheHitsTotal.Inc()
	m.CacheMissesTotal.Inc()
	m.CacheSize.Set(3)
	m.RetrievalDurationSeconds.Observe(0.01)
	m.LLMDurationSeconds.WithLabelValues("complete").Observe(0.5)
	m.ActiveStreams.Inc()
	m.ActiveStreams.Dec()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}

func TestNew_DoublyRegisteringPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected New() to panic on duplicate registration against the same registry")
		}
	}()
	New(reg)
}
