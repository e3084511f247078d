// Package config handles emrwatch configuration from YAML files.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level emrwatch configuration.
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Host     HostConfig     `yaml:"host"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Relay    RelayConfig    `yaml:"relay"`
	Importer ImporterConfig `yaml:"importer"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
}

// HostConfig identifies the EMR deployment to watch.
type HostConfig struct {
	// URL is the EMR entry point to open when no existing tab matches.
	URL string `yaml:"url"`
	// TenantID scopes every import from this watcher to one clinic.
	TenantID string `yaml:"tenant_id"`
	// Debounce is the quiet window after a mutation burst before the page
	// is re-classified. Default: 300ms.
	Debounce time.Duration `yaml:"debounce"`
	// SettleTimeout bounds how long a page is given to render the
	// extraction target after navigation. Default: 10s.
	SettleTimeout time.Duration `yaml:"settle_timeout"`
}

// ScrapeConfig controls in-page extraction.
type ScrapeConfig struct {
	// WaitTimeout is the per-selector budget for the DOM wait primitive.
	// Default: 10s.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
	// Notices enables the in-page success notice.
	Notices bool `yaml:"notices"`
}

// RelayConfig defines where detections are delivered.
type RelayConfig struct {
	Surfaces []SurfaceConfig `yaml:"surfaces"`
	// BreadcrumbDB is the SQLite path for last-detected snapshots.
	// Empty disables breadcrumbs.
	BreadcrumbDB string `yaml:"breadcrumb_db"`
}

// SurfaceConfig defines one delivery surface.
type SurfaceConfig struct {
	Type string `yaml:"type"` // stdout | webhook
	URL  string `yaml:"url"`  // for webhook
}

// ImporterConfig configures the in-process importer surface. A non-empty
// MaterializerURL turns it on.
type ImporterConfig struct {
	MaterializerURL string `yaml:"materializer_url"`
	BearerToken     string `yaml:"bearer_token"`
	// Listen optionally serves the import HTTP API on this address.
	Listen string `yaml:"listen"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with working defaults.
func (c *Config) ApplyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Host.Debounce <= 0 {
		c.Host.Debounce = 300 * time.Millisecond
	}
	if c.Host.SettleTimeout <= 0 {
		c.Host.SettleTimeout = 10 * time.Second
	}
	if c.Scrape.WaitTimeout <= 0 {
		c.Scrape.WaitTimeout = 10 * time.Second
	}
}
