// File: facade/evpool.go
// Unified facade layer for hioload-evpool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Evpool aggregates the pool manager, configuration store, logger, metrics
// registry and debug probes behind one value. Configuration reloads are
// propagated to the log level and to the manager capability, huge-page and
// default free-list settings. Pools that already exist keep their storage.

package facade

import (
	"io"
	"strconv"
	"sync"

	"github.com/brickingsoft/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-evpool/adapters"
	"github.com/momentics/hioload-evpool/api"
	"github.com/momentics/hioload-evpool/control"
	"github.com/momentics/hioload-evpool/pool"
)

// ErrClosed is returned by operations on a shut down facade.
var ErrClosed = errors.Define("evpool closed")

// IsClosed reports whether err is or wraps ErrClosed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// Option configures New.
type Option func(*Evpool)

// WithLogOutput redirects the facade logger.
func WithLogOutput(w io.Writer) Option {
	return func(e *Evpool) { e.logOutput = w }
}

// WithRuntimeMetrics adds the Go runtime and process collectors.
func WithRuntimeMetrics(on bool) Option {
	return func(e *Evpool) { e.runtimeMetrics = on }
}

// Evpool is the main facade type.
// It implements api.GracefulShutdown to allow unified shutdown logic.
type Evpool struct {
	store     *control.ConfigStore
	metrics   *control.MetricsRegistry
	debug     *control.DebugProbes
	ctrl      *adapters.ControlAdapter
	mgr       *pool.Manager
	collector prometheus.Collector

	logOutput      io.Writer
	runtimeMetrics bool

	mu     sync.Mutex
	log    zerolog.Logger
	probes map[uint64]string
	closed bool
}

var _ api.GracefulShutdown = (*Evpool)(nil)

// New builds a facade from cfg. A nil cfg is loaded from the environment.
func New(cfg *control.Config, opts ...Option) (*Evpool, error) {
	if cfg == nil {
		var err error
		if cfg, err = control.LoadConfig(nil); err != nil {
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Evpool{probes: make(map[uint64]string)}
	for _, o := range opts {
		o(e)
	}
	e.log = e.newLogger(cfg)
	e.store = control.NewConfigStore(cfg)
	e.metrics = control.NewMetricsRegistry(e.runtimeMetrics)
	e.debug = control.NewDebugProbes()
	e.ctrl = adapters.NewControlAdapter(e.store, e.metrics, e.debug)

	e.mgr = pool.NewManager(
		pool.WithLogger(e.log),
		pool.WithCapability(cfg.Capability()),
		pool.WithHugePages(cfg.HugePages),
		pool.WithDefaultFreeList(cfg.FreeListKind()),
	)

	if cfg.MetricsEnabled {
		e.collector = pool.NewCollector(e.mgr, cfg.MetricsNamespace)
		if err := e.metrics.Register(e.collector); err != nil {
			return nil, errors.New(
				"register pool collector failed",
				errors.WithMeta(api.ErrMetaPkgKey, "facade"),
				errors.WithWrap(err),
			)
		}
	}

	e.store.OnReload(e.apply)

	e.log.Info().
		Int("max_pools", cfg.MaxPools).
		Str("freelist", cfg.FreeListKind().String()).
		Bool("hugepages", cfg.HugePages).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("evpool started")
	return e, nil
}

func (e *Evpool) newLogger(cfg *control.Config) zerolog.Logger {
	lc := cfg.LoggerConfig()
	lc.Output = e.logOutput
	return control.NewLogger(lc)
}

// apply propagates a new configuration snapshot. Storage settings take effect
// for pools created afterwards.
func (e *Evpool) apply(cfg *control.Config) {
	log := e.newLogger(cfg)
	e.mu.Lock()
	e.log = log
	e.mu.Unlock()
	e.mgr.SetLogger(log)
	e.mgr.SetCapability(cfg.Capability())
	e.mgr.SetHugePages(cfg.HugePages)
	e.mgr.SetDefaultFreeList(cfg.FreeListKind())
	log.Info().
		Int("max_pools", cfg.MaxPools).
		Str("level", log.GetLevel().String()).
		Str("freelist", cfg.FreeListKind().String()).
		Bool("hugepages", cfg.HugePages).
		Msg("configuration reloaded")
}

// Manager returns the underlying pool manager.
func (e *Evpool) Manager() *pool.Manager {
	return e.mgr
}

// Control returns the runtime control surface.
func (e *Evpool) Control() api.Control {
	return e.ctrl
}

// Config returns the current configuration snapshot.
func (e *Evpool) Config() *control.Config {
	return e.store.Load()
}

// Logger returns the current facade logger.
func (e *Evpool) Logger() zerolog.Logger {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log
}

// Update publishes cfg and applies it.
func (e *Evpool) Update(cfg *control.Config) error {
	return e.store.Update(cfg)
}

// Reload re-reads the environment and applies the result.
func (e *Evpool) Reload() error {
	log := e.Logger()
	return e.store.Reload(&log)
}

// CreatePool creates a pool and, when enabled, a debug probe reporting its
// statistics.
func (e *Evpool) CreatePool(name string, param *api.PoolParam) (pool.Pool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return pool.PoolInvalid, errors.From(ErrClosed)
	}
	pl, err := e.mgr.Create(name, param)
	if err != nil {
		return pool.PoolInvalid, err
	}
	if e.store.Load().DebugProbes {
		probe := probeName(pl)
		e.probes[pl.ID()] = probe
		e.ctrl.RegisterDebugProbe(probe, func() any { return pl.Stats() })
	}
	return pl, nil
}

// DestroyPool destroys an idle pool and drops its probe.
func (e *Evpool) DestroyPool(pl pool.Pool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyLocked(pl)
}

func (e *Evpool) destroyLocked(pl pool.Pool) error {
	id := pl.ID()
	if err := e.mgr.Destroy(pl); err != nil {
		return err
	}
	if probe, ok := e.probes[id]; ok {
		e.ctrl.UnregisterDebugProbe(probe)
		delete(e.probes, id)
	}
	return nil
}

func probeName(pl pool.Pool) string {
	return "pool." + pl.Name() + "#" + strconv.FormatUint(pl.ID(), 10)
}

// Stats merges metrics and debug probe output.
func (e *Evpool) Stats() map[string]any {
	return e.ctrl.Stats()
}

// DumpState returns debug probe output only.
func (e *Evpool) DumpState() map[string]any {
	return e.debug.DumpState()
}

// Shutdown destroys every idle pool and unregisters the collector. Pools with
// live objects are left in place and the first failure is returned; Shutdown
// may be called again once they are drained.
func (e *Evpool) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true

	var first error
	for _, pl := range e.mgr.Pools() {
		if err := e.destroyLocked(pl); err != nil {
			e.log.Warn().Err(err).Str("pool", pl.Name()).Uint64("id", pl.ID()).Msg("pool not destroyed on shutdown")
			if first == nil {
				first = err
			}
		}
	}
	if first != nil {
		return first
	}
	if e.collector != nil {
		e.metrics.Unregister(e.collector)
		e.collector = nil
	}
	e.log.Info().Msg("evpool stopped")
	return nil
}
