package config

import (
	"fmt"
	"log/slog"
	"strings"
)

var (
	MinJWTSecretLength = 16
)

// ValidateConfig checks value ranges. Secrets are checked separately by
// ValidateSecrets because they may only exist in the environment.
func ValidateConfig(cfg Config) error {
	switch strings.ToLower(cfg.Backend) {
	case "memory", "leveldb", "bolt":
	default:
		return fmt.Errorf("backend: unsupported %q", cfg.Backend)
	}
	if cfg.RPCReadHeaderTimeout < 0 || cfg.RPCReadTimeout < 0 || cfg.RPCWriteTimeout < 0 || cfg.RPCIdleTimeout < 0 {
		return fmt.Errorf("rpc: timeouts must not be negative")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log: invalid level %q", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log: rotation limits must not be negative")
	}
	if cfg.RateLimit.RequestsPerSecond < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: sample ratio must be within [0,1]")
	}
	if (cfg.Telemetry.Enabled || cfg.Telemetry.Metrics) && strings.TrimSpace(cfg.Telemetry.Endpoint) == "" {
		return fmt.Errorf("telemetry: endpoint required when enabled")
	}
	if cfg.Journal.Enabled {
		switch cfg.Journal.Driver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("journal: unsupported driver %q", cfg.Journal.Driver)
		}
		if strings.TrimSpace(cfg.Journal.DSN) == "" {
			return fmt.Errorf("journal: dsn required when enabled")
		}
	}
	return nil
}

// ValidateSecrets ensures a usable JWT signing key is available.
func ValidateSecrets(cfg Config) error {
	if len(cfg.Auth.Secret()) < MinJWTSecretLength {
		return fmt.Errorf("auth: jwt secret must be at least %d bytes (set %s)", MinJWTSecretLength, cfg.Auth.JWTSecretEnv)
	}
	return nil
}
