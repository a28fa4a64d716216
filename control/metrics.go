// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus registry with a flattened snapshot view for debug output.

package control

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// MetricsRegistry owns the collectors exported by a process.
type MetricsRegistry struct {
	reg *prometheus.Registry
}

// NewMetricsRegistry creates a registry. With runtime set the Go runtime and
// process collectors are registered as well.
func NewMetricsRegistry(runtime bool) *MetricsRegistry {
	reg := prometheus.NewRegistry()
	if runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return &MetricsRegistry{reg: reg}
}

// Register adds a collector.
func (mr *MetricsRegistry) Register(c prometheus.Collector) error {
	return mr.reg.Register(c)
}

// Unregister removes a collector.
func (mr *MetricsRegistry) Unregister(c prometheus.Collector) bool {
	return mr.reg.Unregister(c)
}

// Gatherer exposes the registry for an exporter.
func (mr *MetricsRegistry) Gatherer() prometheus.Gatherer {
	return mr.reg
}

// GetSnapshot gathers every metric and keys its value by name and labels,
// e.g. `evpool_pool_live{id="1",pool="rx",type="buffer"}`.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	families, err := mr.reg.Gather()
	out := make(map[string]any)
	if err != nil {
		out["error"] = err.Error()
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := seriesKey(mf.GetName(), m.GetLabel())
			switch {
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetUntyped() != nil:
				out[key] = m.GetUntyped().GetValue()
			case m.GetSummary() != nil:
				out[key+"_count"] = m.GetSummary().GetSampleCount()
			case m.GetHistogram() != nil:
				out[key+"_count"] = m.GetHistogram().GetSampleCount()
			}
		}
	}
	return out
}

func seriesKey(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	pairs := make([]string, 0, len(labels))
	for _, lp := range labels {
		pairs = append(pairs, lp.GetName()+`="`+lp.GetValue()+`"`)
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}
