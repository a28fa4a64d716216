// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Environment driven configuration and a typed store with reload listeners.

package control

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-evpool/api"
)

// EnvPrefix is prepended to every configuration variable name.
const EnvPrefix = "EVPOOL_"

// Config holds the runtime configuration.
// Priority: environment > .env file > defaults.
type Config struct {
	// Pool limits
	MaxPools          int `env:"MAX_POOLS" envDefault:"64"`
	MaxBufferNum      int `env:"MAX_BUFFER_NUM" envDefault:"1048576"`
	MaxBufferSize     int `env:"MAX_BUFFER_SIZE" envDefault:"1048576"`
	MaxBufferAlign    int `env:"MAX_BUFFER_ALIGN" envDefault:"4096"`
	MaxPacketNum      int `env:"MAX_PACKET_NUM" envDefault:"1048576"`
	MaxPacketLen      int `env:"MAX_PACKET_LEN" envDefault:"65536"`
	MaxPacketHeadroom int `env:"MAX_PACKET_HEADROOM" envDefault:"512"`
	MaxTimeoutNum     int `env:"MAX_TIMEOUT_NUM" envDefault:"1048576"`

	// Pool storage
	FreeList  string `env:"FREELIST" envDefault:"lockfree"`
	HugePages bool   `env:"HUGEPAGES" envDefault:"false"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Monitoring
	MetricsEnabled   bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"evpool"`
	DebugProbes      bool   `env:"DEBUG_PROBES" envDefault:"true"`
}

// LoadConfig reads an optional .env file and the environment, then validates
// the result. logger may be nil.
func LoadConfig(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Debug().Msg("no .env file found, using environment only")
		}
	} else if logger != nil {
		logger.Info().Msg("loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.New(
			"parse config failed",
			errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(err),
		)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug().
			Int("max_pools", cfg.MaxPools).
			Str("freelist", cfg.FreeList).
			Bool("hugepages", cfg.HugePages).
			Msg("configuration loaded")
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"MAX_POOLS", c.MaxPools},
		{"MAX_BUFFER_NUM", c.MaxBufferNum},
		{"MAX_BUFFER_SIZE", c.MaxBufferSize},
		{"MAX_PACKET_NUM", c.MaxPacketNum},
		{"MAX_PACKET_LEN", c.MaxPacketLen},
		{"MAX_TIMEOUT_NUM", c.MaxTimeoutNum},
	}
	for _, f := range positive {
		if f.v < 1 {
			return configErr(f.name, strconv.Itoa(f.v))
		}
	}
	if c.MaxBufferAlign < 0 || c.MaxBufferAlign&(c.MaxBufferAlign-1) != 0 {
		return configErr("MAX_BUFFER_ALIGN", strconv.Itoa(c.MaxBufferAlign))
	}
	if c.MaxPacketHeadroom < 0 {
		return configErr("MAX_PACKET_HEADROOM", strconv.Itoa(c.MaxPacketHeadroom))
	}
	if _, ok := api.ParseFreeListKind(c.FreeList); !ok {
		return configErr("FREELIST", c.FreeList)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return configErr("LOG_LEVEL", c.LogLevel)
	}
	switch c.LogFormat {
	case LogFormatJSON, LogFormatPretty:
	default:
		return configErr("LOG_FORMAT", c.LogFormat)
	}
	return nil
}

// Capability maps the configured limits onto a pool capability.
func (c *Config) Capability() api.PoolCapability {
	var capa api.PoolCapability
	capa.MaxPools = c.MaxPools
	capa.Buf.MaxNum = c.MaxBufferNum
	capa.Buf.MaxSize = c.MaxBufferSize
	capa.Buf.MaxAlign = c.MaxBufferAlign
	capa.Pkt.MaxNum = c.MaxPacketNum
	capa.Pkt.MaxLen = c.MaxPacketLen
	capa.Pkt.MaxHeadroom = c.MaxPacketHeadroom
	capa.Tmo.MaxNum = c.MaxTimeoutNum
	return capa
}

// FreeListKind returns the parsed default free-list kind.
func (c *Config) FreeListKind() api.FreeListKind {
	k, _ := api.ParseFreeListKind(c.FreeList)
	return k
}

func configErr(field, value string) error {
	return errors.From(
		api.ErrInvalidParam,
		errors.WithMeta(api.ErrMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(api.ErrMetaFieldKey, EnvPrefix+field),
		errors.WithMeta("value", value),
	)
}

const errMetaPkgVal = "control"

// ConfigStore holds the current configuration snapshot. Readers never block;
// updates are serialized and notify listeners in registration order.
type ConfigStore struct {
	mu        sync.Mutex
	cur       atomic.Pointer[Config]
	listeners []func(*Config)
}

// NewConfigStore creates a store holding cfg.
func NewConfigStore(cfg *Config) *ConfigStore {
	cs := &ConfigStore{}
	cs.cur.Store(cfg)
	return cs
}

// Load returns the current snapshot. Callers must not modify it.
func (cs *ConfigStore) Load() *Config {
	return cs.cur.Load()
}

// Update validates cfg, publishes it and runs the reload listeners
// synchronously. An invalid cfg leaves the current snapshot in place.
func (cs *ConfigStore) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.cur.Store(cfg)
	for _, fn := range cs.listeners {
		fn(cfg)
	}
	return nil
}

// OnReload registers a listener called after every successful Update.
func (cs *ConfigStore) OnReload(fn func(*Config)) {
	cs.mu.Lock()
	cs.listeners = append(cs.listeners, fn)
	cs.mu.Unlock()
}
