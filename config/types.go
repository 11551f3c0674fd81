package config

// Log controls structured logging output.
type Log struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// Auth configures the bearer tokens that carry caller identity.
type Auth struct {
	// JWTSecret is the HMAC key. JWTSecretEnv, when set in the environment,
	// takes precedence.
	JWTSecret    string `toml:"JWTSecret"`
	JWTSecretEnv string `toml:"JWTSecretEnv"`
	Issuer       string `toml:"Issuer"`
	Audience     string `toml:"Audience"`
	// AllowFaucet exposes the development credit endpoint.
	AllowFaucet bool `toml:"AllowFaucet"`
}

// RateLimit bounds requests per client.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Telemetry configures the OTLP exporters. Enabled turns on traces; Metrics
// additionally pushes OTLP metrics next to the Prometheus endpoint.
type Telemetry struct {
	Enabled     bool    `toml:"Enabled"`
	Metrics     bool    `toml:"Metrics"`
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// Journal configures the persistent event journal.
type Journal struct {
	Enabled bool   `toml:"Enabled"`
	Driver  string `toml:"Driver"`
	DSN     string `toml:"DSN"`
}
