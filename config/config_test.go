package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.RPCAddress)
	require.Equal(t, "leveldb", cfg.Backend)
	require.Equal(t, DefaultJWTSecretEnv, cfg.Auth.JWTSecretEnv)

	_, err = os.Stat(path)
	require.NoError(t, err)

	// The persisted default loads back unchanged.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `RPCAddress = "127.0.0.1:9000"
DataDir = "/var/lib/splitpay"
Backend = "bolt"
GenesisFile = "genesis.yaml"
RPCReadTimeout = 30

[log]
Level = "debug"
File = "/var/log/splitpay.log"
MaxBackups = 3

[auth]
JWTSecret = "file-secret-file-secret"
Issuer = "issuer"

[rate_limit]
RequestsPerSecond = 2.5
Burst = 5

[telemetry]
Enabled = true
Endpoint = "collector:4318"
SampleRatio = 0.25

[journal]
Enabled = true
Driver = "postgres"
DSN = "postgres://localhost/splitpay"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.RPCAddress)
	require.Equal(t, "bolt", cfg.Backend)
	require.Equal(t, 30, cfg.RPCReadTimeout)
	require.Equal(t, 15, cfg.RPCWriteTimeout)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 3, cfg.Log.MaxBackups)
	require.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	require.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
	require.Equal(t, "postgres", cfg.Journal.Driver)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("Bootnodes = []\n"), 0o600))
	_, err := Load(path)
	require.ErrorContains(t, err, "unknown field")
}

func TestValidateConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"backend":    func(c *Config) { c.Backend = "cassandra" },
		"timeouts":   func(c *Config) { c.RPCIdleTimeout = -1 },
		"log level":  func(c *Config) { c.Log.Level = "chatty" },
		"rate limit": func(c *Config) { c.RateLimit.Burst = -1 },
		"sampling":   func(c *Config) { c.Telemetry.SampleRatio = 2 },
		"endpoint":   func(c *Config) { c.Telemetry.Enabled = true },
		"driver":     func(c *Config) { c.Journal.Enabled = true; c.Journal.Driver = "mysql"; c.Journal.DSN = "x" },
		"dsn":        func(c *Config) { c.Journal.Enabled = true },
	}
	require.NoError(t, ValidateConfig(*Default()))
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.Error(t, ValidateConfig(*cfg))
		})
	}
}

func TestSecretPrefersEnvironment(t *testing.T) {
	t.Setenv(DefaultJWTSecretEnv, "")
	cfg := Default()
	cfg.Auth.JWTSecret = "short"
	require.Error(t, ValidateSecrets(*cfg))

	t.Setenv(DefaultJWTSecretEnv, "from-the-environment-123")
	require.Equal(t, "from-the-environment-123", cfg.Auth.Secret())
	require.NoError(t, ValidateSecrets(*cfg))
}
