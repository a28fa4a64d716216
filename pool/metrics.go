// File: pool/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus collector over the live pools of a Manager. Values are read at
// scrape time from the pool counters; nothing is kept in between.

package pool

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type collector struct {
	m *Manager

	capacity   *prometheus.Desc
	live       *prometheus.Desc
	available  *prometheus.Desc
	allocs     *prometheus.Desc
	frees      *prometheus.Desc
	allocFails *prometheus.Desc
	freeErrors *prometheus.Desc
}

// NewCollector returns a collector exporting per-pool gauges and counters
// labelled by pool name, id and type.
func NewCollector(m *Manager, namespace string) prometheus.Collector {
	labels := []string{"pool", "id", "type"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, labels, nil)
	}
	return &collector{
		m:          m,
		capacity:   desc("capacity", "Number of objects the pool was created with"),
		live:       desc("live", "Number of objects currently allocated"),
		available:  desc("available", "Number of objects on the free-list"),
		allocs:     desc("allocs_total", "Total successful allocations"),
		frees:      desc("frees_total", "Total successful frees"),
		allocFails: desc("alloc_failures_total", "Total allocations that returned an invalid handle"),
		freeErrors: desc("free_errors_total", "Total frees rejected as stale or double"),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.live
	ch <- c.available
	ch <- c.allocs
	ch <- c.frees
	ch <- c.allocFails
	ch <- c.freeErrors
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	for _, pl := range c.m.Pools() {
		st := pl.Stats()
		lv := []string{pl.Name(), strconv.FormatUint(pl.ID(), 10), pl.Type().String()}
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(st.Capacity), lv...)
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(st.Live), lv...)
		ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(st.Available), lv...)
		ch <- prometheus.MustNewConstMetric(c.allocs, prometheus.CounterValue, float64(st.AllocOps), lv...)
		ch <- prometheus.MustNewConstMetric(c.frees, prometheus.CounterValue, float64(st.FreeOps), lv...)
		ch <- prometheus.MustNewConstMetric(c.allocFails, prometheus.CounterValue, float64(st.AllocFails), lv...)
		ch <- prometheus.MustNewConstMetric(c.freeErrors, prometheus.CounterValue, float64(st.FreeErrors), lv...)
	}
}
