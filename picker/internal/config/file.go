// CLAUDE:SUMMARY Defines domselect config structs and parses YAML configuration files with defaults.
// Package config loads domselect configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/domselect/selector"
	"gopkg.in/yaml.v3"
)

// Config is the top-level domselect configuration.
type Config struct {
	DeepShadow *bool  `yaml:"deep_shadow"`
	DBPath     string `yaml:"db_path"`
	Listen     string `yaml:"listen"`

	// AllowPrivate lets URL loads reach loopback and private addresses.
	AllowPrivate bool `yaml:"allow_private"`

	Policy  selector.Policy `yaml:"policy"`
	Browser BrowserConfig   `yaml:"browser"`
}

// BrowserConfig controls Chrome for pages that need JavaScript.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavigateTimeout  time.Duration `yaml:"navigate_timeout"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	RecycleSnapshots int           `yaml:"recycle_snapshots"` // 0 = interval only
	XvfbDisplay      string        `yaml:"xvfb_display"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := Config{Policy: selector.DefaultPolicy()}
	c.applyDefaults()
	return &c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	// Policy fields absent from the file keep their defaults.
	cfg := Config{Policy: selector.DefaultPolicy()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Deep reports whether structural paths pierce open shadow boundaries.
func (c *Config) Deep() bool {
	return c.DeepShadow == nil || *c.DeepShadow
}

func (c *Config) applyDefaults() {
	if c.Policy.DataPrefix == "" {
		c.Policy.DataPrefix = "data-"
	}
	if c.Listen == "" {
		c.Listen = ":8086"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"images", "fonts", "media"}
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
}
