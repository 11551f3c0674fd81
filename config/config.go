package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultJWTSecretEnv = "SPLITPAY_JWT_SECRET"

	defaultRPCAddress  = ":8080"
	defaultDataDir     = "./splitpay-data"
	defaultBackend     = "leveldb"
	defaultEnvironment = "dev"
)

type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	DataDir              string `toml:"DataDir"`
	Backend              string `toml:"Backend"`
	GenesisFile          string `toml:"GenesisFile"`
	Environment          string `toml:"Environment"`
	RPCReadHeaderTimeout int    `toml:"RPCReadHeaderTimeout"`
	RPCReadTimeout       int    `toml:"RPCReadTimeout"`
	RPCWriteTimeout      int    `toml:"RPCWriteTimeout"`
	RPCIdleTimeout       int    `toml:"RPCIdleTimeout"`

	Log       Log       `toml:"log"`
	Auth      Auth      `toml:"auth"`
	RateLimit RateLimit `toml:"rate_limit"`
	Telemetry Telemetry `toml:"telemetry"`
	Journal   Journal   `toml:"journal"`
}

// Load loads the configuration from the given path. A default configuration
// is written when the file does not exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0].String())
	}
	applyDefaults(cfg)
	if err := ValidateConfig(*cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = defaultRPCAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaultDataDir
	}
	if strings.TrimSpace(cfg.Backend) == "" {
		cfg.Backend = defaultBackend
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = defaultEnvironment
	}
	if cfg.RPCReadHeaderTimeout == 0 {
		cfg.RPCReadHeaderTimeout = 5
	}
	if cfg.RPCReadTimeout == 0 {
		cfg.RPCReadTimeout = 15
	}
	if cfg.RPCWriteTimeout == 0 {
		cfg.RPCWriteTimeout = 15
	}
	if cfg.RPCIdleTimeout == 0 {
		cfg.RPCIdleTimeout = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Auth.JWTSecretEnv == "" {
		cfg.Auth.JWTSecretEnv = DefaultJWTSecretEnv
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "splitpay"
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 40
	}
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = 1
	}
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = "sqlite"
	}
}

// Secret resolves the JWT signing key, preferring the environment.
func (a Auth) Secret() string {
	if a.JWTSecretEnv != "" {
		if v := strings.TrimSpace(os.Getenv(a.JWTSecretEnv)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(a.JWTSecret)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
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
