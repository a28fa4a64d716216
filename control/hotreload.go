// control/hotreload.go
// Re-reads the environment into a ConfigStore.

package control

import "github.com/rs/zerolog"

// Reload loads the configuration again and publishes it. On failure the
// previous snapshot stays current and the error is returned.
func (cs *ConfigStore) Reload(logger *zerolog.Logger) error {
	cfg, err := LoadConfig(logger)
	if err != nil {
		if logger != nil {
			logger.Warn().Err(err).Msg("config reload rejected")
		}
		return err
	}
	return cs.Update(cfg)
}
