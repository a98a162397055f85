package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon's operator-facing settings.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	DataDir        string `toml:"DataDir"`
	Environment    string `toml:"Environment"`
	AdminAddress   string `toml:"AdminAddress"`
	BadgeThreshold uint64 `toml:"BadgeThreshold"`

	LogFile       string `toml:"LogFile"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB"`
	LogMaxBackups int    `toml:"LogMaxBackups"`
	LogMaxAgeDays int    `toml:"LogMaxAgeDays"`

	// PausedModules lists module names halted at startup, e.g. ["savings"].
	PausedModules []string `toml:"PausedModules"`
}

// Load loads the configuration from the given path, creating a commented
// default file when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./nestdata"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if c.BadgeThreshold == 0 {
		c.BadgeThreshold = 1_000_000
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AdminAddress) == "" {
		return fmt.Errorf("config: AdminAddress is required")
	}
	return nil
}

// Pauses exposes the configured module pause list as a pause view.
type Pauses struct {
	modules map[string]bool
}

// NewPauses builds a pause view from a module name list.
func NewPauses(modules []string) Pauses {
	set := make(map[string]bool, len(modules))
	for _, m := range modules {
		if name := strings.TrimSpace(m); name != "" {
			set[name] = true
		}
	}
	return Pauses{modules: set}
}

// IsPaused reports whether the named module is halted by operator config.
func (p Pauses) IsPaused(module string) bool {
	return p.modules[module]
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.WriteString("# nestd configuration. AdminAddress must be set before first start.\n"); err != nil {
		return nil, err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, fmt.Errorf("config: wrote default config to %s; set AdminAddress and restart", path)
}
