package emrwatch

import (
	"github.com/parable-health/emrbridge/emrwatch/internal/config"
)

// Config is the top-level emrwatch configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// HostConfig identifies the EMR deployment to watch.
type HostConfig = config.HostConfig

// ScrapeConfig controls in-page extraction.
type ScrapeConfig = config.ScrapeConfig

// RelayConfig defines where detections are delivered.
type RelayConfig = config.RelayConfig

// SurfaceConfig defines one delivery surface.
type SurfaceConfig = config.SurfaceConfig

// ImporterConfig configures the in-process importer surface.
type ImporterConfig = config.ImporterConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}
