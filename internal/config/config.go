package config

import "time"

// Default configuration values.
const (
	// DefaultServerAddress is the default admin server listen address.
	DefaultServerAddress = ":8181"

	// DefaultFreshnessWindow is the default interval between rule
	// source change checks.
	DefaultFreshnessWindow = 10 * time.Second

	// DefaultCacheThreshold is the rule count above which verdict
	// caching is enabled.
	DefaultCacheThreshold = 10

	// DefaultReloadRPS is the default rate limit for the admin
	// reload endpoint, in requests per second.
	DefaultReloadRPS = 1

	// DefaultReloadBurst is the default burst size for the admin
	// reload endpoint rate limit.
	DefaultReloadBurst = 2
)

// Config is the top-level authorizer configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	ACL         ACLConfig         `yaml:"acl"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Logging     LoggingConfig     `yaml:"logging"`
	Audit       AuditConfig       `yaml:"audit"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	// Address is the listen address, e.g. ":8181".
	Address string `yaml:"address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout Duration `yaml:"readTimeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout Duration `yaml:"writeTimeout"`

	// IdleTimeout is the maximum keep-alive idle time.
	IdleTimeout Duration `yaml:"idleTimeout"`

	// ReloadRPS rate-limits the POST /v1/reload endpoint, in
	// requests per second.
	ReloadRPS int `yaml:"reloadRPS"`

	// ReloadBurst is the burst size for the reload rate limit.
	ReloadBurst int `yaml:"reloadBurst"`
}

// ACLConfig configures the rule source and the decision engine.
type ACLConfig struct {
	// RulesFile is the path to the JSON rule file.
	RulesFile string `yaml:"rulesFile"`

	// FreshnessWindow is the maximum interval the engine serves
	// potentially stale rules before re-checking the source.
	FreshnessWindow Duration `yaml:"freshnessWindow"`

	// CacheThreshold is the rule count above which verdict caching
	// is enabled.
	CacheThreshold int `yaml:"cacheThreshold"`

	// WatchFile enables the file watcher that triggers an immediate
	// reload on rule file changes, in addition to the freshness poll.
	WatchFile bool `yaml:"watchFile"`
}

// CredentialsConfig configures the static credentials verifier.
type CredentialsConfig struct {
	// UsersFile is the path to the JSON credentials file. Empty
	// disables credential verification.
	UsersFile string `yaml:"usersFile"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is json or console.
	Format string `yaml:"format"`

	// Output is stdout or stderr.
	Output string `yaml:"output"`
}

// AuditConfig configures the decision audit trail.
type AuditConfig struct {
	// Enabled turns audit logging on.
	Enabled bool `yaml:"enabled"`

	// Output is where audit events are written: stdout, stderr or a
	// file path.
	Output string `yaml:"output"`
}

// DefaultConfig returns a configuration with default values. The rule
// file path has no default; it must be set explicitly.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      DefaultServerAddress,
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(10 * time.Second),
			IdleTimeout:  Duration(60 * time.Second),
			ReloadRPS:    DefaultReloadRPS,
			ReloadBurst:  DefaultReloadBurst,
		},
		ACL: ACLConfig{
			FreshnessWindow: Duration(DefaultFreshnessWindow),
			CacheThreshold:  DefaultCacheThreshold,
			WatchFile:       true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Audit: AuditConfig{
			Enabled: false,
			Output:  "stdout",
		},
	}
}

// applyDefaults fills unset fields with default values after loading.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = defaults.Server.IdleTimeout
	}
	if c.Server.ReloadRPS == 0 {
		c.Server.ReloadRPS = defaults.Server.ReloadRPS
	}
	if c.Server.ReloadBurst == 0 {
		c.Server.ReloadBurst = defaults.Server.ReloadBurst
	}
	if c.ACL.FreshnessWindow == 0 {
		c.ACL.FreshnessWindow = defaults.ACL.FreshnessWindow
	}
	if c.ACL.CacheThreshold == 0 {
		c.ACL.CacheThreshold = defaults.ACL.CacheThreshold
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaults.Logging.Output
	}
	if c.Audit.Output == "" {
		c.Audit.Output = defaults.Audit.Output
	}
}
