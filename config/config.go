package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Service     string    `toml:"Service" yaml:"service"`
	Environment string    `toml:"Environment" yaml:"environment"`
	DataDir     string    `toml:"DataDir" yaml:"data_dir"`
	Log         Log       `toml:"log" yaml:"log"`
	Telemetry   Telemetry `toml:"telemetry" yaml:"telemetry"`
	Journal     Journal   `toml:"journal" yaml:"journal"`
	Token       Token     `toml:"token" yaml:"token"`
	Sale        Sale      `toml:"sale" yaml:"sale"`
	Roles       Roles     `toml:"roles" yaml:"roles"`
	Referral    Referral  `toml:"referral" yaml:"referral"`
	Escrows     []Escrow  `toml:"escrows" yaml:"escrows"`
	Pauses      Pauses    `toml:"pauses" yaml:"pauses"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the configuration at path, applies defaults and validates it.
// Files ending in .yaml or .yml are decoded as YAML, anything else as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	} else {
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: unknown key %s in %s", undecoded[0].String(), path)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Service) == "" {
		c.Service = "tokensaled"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./sale-data"
	}
	if strings.TrimSpace(c.Token.Symbol) == "" {
		c.Token.Symbol = "SALE"
	}
	if c.Token.Decimals == 0 {
		c.Token.Decimals = 18
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
}

// Save writes cfg as TOML, or YAML when path says so.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}
