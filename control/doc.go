// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging, metrics and debug introspection for evpool.
//
// Provides:
//   - Environment driven Config with an atomic ConfigStore and reload listeners
//   - zerolog logger factory
//   - Prometheus registry with a flattened snapshot
//   - Named debug probes, including platform probes
package control
