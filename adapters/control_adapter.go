// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"github.com/momentics/hioload-evpool/api"
	"github.com/momentics/hioload-evpool/control"
)

// ControlAdapter joins configuration, metrics and debug probes behind
// api.Control.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

var _ api.Control = (*ControlAdapter)(nil)

// NewControlAdapter wraps the given primitives. Platform probes are
// registered on debug.
func NewControlAdapter(config *control.ConfigStore, metrics *control.MetricsRegistry, debug *control.DebugProbes) *ControlAdapter {
	control.RegisterPlatformProbes(debug)
	return &ControlAdapter{
		config:  config,
		metrics: metrics,
		debug:   debug,
	}
}

// Config returns the current configuration snapshot.
func (c *ControlAdapter) Config() *control.Config {
	return c.config.Load()
}

// Stats merges the metric snapshot with debug probe output, the latter under
// the "debug." prefix.
func (c *ControlAdapter) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	for k, v := range c.debug.DumpState() {
		stats["debug."+k] = v
	}
	return stats
}

// OnReload registers fn to run after every configuration update.
func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(func(*control.Config) { fn() })
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

func (c *ControlAdapter) UnregisterDebugProbe(name string) {
	c.debug.UnregisterProbe(name)
}
