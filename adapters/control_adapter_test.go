package adapters_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-evpool/adapters"
	"github.com/momentics/hioload-evpool/control"
)

func TestControlAdapterBasic(t *testing.T) {
	cfg, err := control.LoadConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	store := control.NewConfigStore(cfg)
	metrics := control.NewMetricsRegistry(false)
	ctrl := adapters.NewControlAdapter(store, metrics, control.NewDebugProbes())

	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "evpool_test_total", Help: "test"})
	if err := metrics.Register(c); err != nil {
		t.Fatal(err)
	}
	c.Add(2)
	ctrl.RegisterDebugProbe("k", func() any { return 1 })

	stats := ctrl.Stats()
	if stats["evpool_test_total"] != 2.0 {
		t.Errorf("metric missing from stats: %v", stats)
	}
	if stats["debug.k"] != 1 {
		t.Error("probe missing from stats")
	}
	if _, ok := stats["debug.platform.cpus"]; !ok {
		t.Error("platform probes not registered")
	}
	ctrl.UnregisterDebugProbe("k")
	if _, ok := ctrl.Stats()["debug.k"]; ok {
		t.Error("probe still present after unregister")
	}

	called := false
	ctrl.OnReload(func() { called = true })
	next := *cfg
	next.MaxPools = 5
	if err := store.Update(&next); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("Reload hook not called")
	}
	if ctrl.Config().MaxPools != 5 {
		t.Error("config snapshot not updated")
	}
}
