// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown releases every resource owned by a component.
type GracefulShutdown interface {
	// Shutdown stops the component. It fails when resources are still in use.
	Shutdown() error
}
