package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress        string  `toml:"RPCAddress"`
	DataDir           string  `toml:"DataDir"`
	GenesisFile       string  `toml:"GenesisFile"`
	AuditDBPath       string  `toml:"AuditDBPath"`
	LogFile           string  `toml:"LogFile"`
	Environment       string  `toml:"Environment"`
	AdminJWTSecret    string  `toml:"AdminJWTSecret"`
	RateLimitPerSec   float64 `toml:"RateLimitPerSec"`
	RateLimitBurst    int     `toml:"RateLimitBurst"`
	ShutdownTimeoutMS int     `toml:"ShutdownTimeoutMS"`
}

// Load loads the configuration from the given path. A missing file is not an
// error: a default config is written there and returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./sftmarket-data"
	}
	if strings.TrimSpace(cfg.AuditDBPath) == "" {
		cfg.AuditDBPath = filepath.Join(cfg.DataDir, "audit.db")
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 20
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 40
	}
	if cfg.ShutdownTimeoutMS <= 0 {
		cfg.ShutdownTimeoutMS = 5000
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:        ":8080",
		DataDir:           "./sftmarket-data",
		GenesisFile:       "",
		Environment:       "local",
		RateLimitPerSec:   20,
		RateLimitBurst:    40,
		ShutdownTimeoutMS: 5000,
	}
	applyDefaults(cfg)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
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

	return toml.NewEncoder(f).Encode(cfg)
}
