// Package config holds the scraper configuration: the club catalogue and the
// browser knobs, stored as YAML in the user's config directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeoutSec bounds a single page operation in the browser.
const DefaultTimeoutSec = 30

// Config is the top-level application configuration.
type Config struct {
	// Pages maps short club names to their event page, given as a path
	// relative to mbasic.facebook.com (e.g. "/clubwu5/events/") or as a
	// full URL. Names are what users type on the command line.
	Pages map[string]string `yaml:"pages" json:"pages"`

	// TimeoutSeconds bounds each page operation (navigate, wait, extract).
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// UserAgent overrides the browser user agent. Empty keeps the
	// browser's own default.
	UserAgent string `yaml:"user_agent" json:"user_agent"`

	// ChromePath points at the browser binary. Empty lets chromedp find a
	// locally installed Chrome or Chromium.
	ChromePath string `yaml:"chrome_path" json:"chrome_path"`

	// MetricsListen is the listen address for the /metrics and /healthz
	// endpoints in watch mode (e.g. "127.0.0.1:9185"). Empty disables
	// them.
	MetricsListen string `yaml:"metrics_listen" json:"metrics_listen"`
}

// defaultPages is the catalogue of Dresden student clubs the scraper was
// built around. The keys are the names accepted on the command line.
func defaultPages() map[string]string {
	return map[string]string{
		"aqua":                "/AquaDD/events/",
		"bärenzwinger":        "/clubbaerenzwinger/events/",
		"borsi":               "/Borsi34/events/",
		"club11":              "/clubelf.de/events/",
		"count down":          "/countdowndd/events/",
		"heinrich-cotta-club": "/HeinrichCottaClub/events/",
		"gag18":               "/KellerklubGAG18eV/events/",
		"gutzkowclub":         "/Gutzkow/events/",
		"hängemathe":          "/clubhaengemathe/events/",
		"novitatis":           "/novitatis/events/",
		"traumtänzer":         "/club.traumtaenzer/events/",
		"wu5":                 "/clubwu5/events/",
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Pages:          defaultPages(),
		TimeoutSeconds: DefaultTimeoutSec,
	}
}

// Normalize fills in missing/zero values so that partially filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Pages == nil {
		c.Pages = defaultPages()
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSec
	}
}

// ResolvePage maps a club name onto its event page. Unknown names pass
// through unchanged, so a raw path or URL works in place of a name.
func (c *Config) ResolvePage(name string) string {
	if page, ok := c.Pages[name]; ok {
		return page
	}
	return name
}

// PageNames returns the configured club names, sorted.
func (c *Config) PageNames() []string {
	names := make([]string, 0, len(c.Pages))
	for name := range c.Pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timeout returns TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath returns the per-user config location, e.g.
// ~/.config/fbscrape/config.yaml.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config dir: %w", err)
	}
	return filepath.Join(base, "fbscrape", "config.yaml"), nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, the parent directory is created, a default
//     config is written with 0600 perms, and the default is returned.
//   - If the file exists, it is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path. The parent
// directory is created as needed, the write goes through a temp file and a
// rename, and the final file carries 0600 perms: the config directory also
// holds cookie material.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fbscrape-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
