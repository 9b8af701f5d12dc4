package dashauth

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Config holds every tunable of the dashboard auth layer. Field tags drive
// [LoadConfig]; [DefaultConfig] mirrors the env-default values.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Stub    StubConfig    `yaml:"stub"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the remote auth server.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"DASHBOARD_API_URL" env-default:"http://localhost:1337/api"`
	Timeout time.Duration `yaml:"timeout" env:"DASHBOARD_API_TIMEOUT" env-default:"15s"`
}

// LoginURL returns the auth endpoint.
func (a APIConfig) LoginURL() string {
	return strings.TrimRight(a.BaseURL, "/") + "/auth/local"
}

/*
====================================
STORAGE CONFIG
====================================
*/

// Storage backends.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageBolt   = "bolt"
)

// StorageConfig selects where credentials are persisted.
type StorageConfig struct {
	Backend     string        `yaml:"backend" env:"DASHBOARD_STORAGE" env-default:"memory"`
	BoltPath    string        `yaml:"bolt_path" env:"DASHBOARD_BOLT_PATH" env-default:"dashauth.db"`
	BoltBucket  string        `yaml:"bolt_bucket" env:"DASHBOARD_BOLT_BUCKET" env-default:"credentials"`
	RedisAddr   string        `yaml:"redis_addr" env:"DASHBOARD_REDIS_ADDR" env-default:"127.0.0.1:6379"`
	RedisPrefix string        `yaml:"redis_prefix" env:"DASHBOARD_REDIS_PREFIX" env-default:"dashauth"`
	RedisTTL    time.Duration `yaml:"redis_ttl" env:"DASHBOARD_REDIS_TTL" env-default:"24h"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes the session lifecycle.
type SessionConfig struct {
	RevalidateInterval time.Duration `yaml:"revalidate_interval" env:"DASHBOARD_REVALIDATE_INTERVAL" env-default:"5m"`
}

// AuditConfig controls asynchronous audit delivery.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled" env:"DASHBOARD_AUDIT_ENABLED" env-default:"false"`
	BufferSize int  `yaml:"buffer_size" env:"DASHBOARD_AUDIT_BUFFER" env-default:"1024"`
	DropIfFull bool `yaml:"drop_if_full" env:"DASHBOARD_AUDIT_DROP_IF_FULL" env-default:"true"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled" env:"DASHBOARD_METRICS_ENABLED" env-default:"false"`
	EnableLatencyHistograms bool `yaml:"latency_histograms" env:"DASHBOARD_METRICS_LATENCY" env-default:"false"`
	// OTelInterval, when positive, pushes the counters through an
	// OpenTelemetry meter to the log at this period.
	OTelInterval time.Duration `yaml:"otel_interval" env:"DASHBOARD_METRICS_OTEL_INTERVAL" env-default:"0s"`
}

// LogConfig selects the slog handler used by the binaries.
type LogConfig struct {
	Level  string `yaml:"level" env:"DASHBOARD_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"DASHBOARD_LOG_FORMAT" env-default:"text"`
}

/*
====================================
SERVER CONFIG
====================================
*/

// ServerConfig configures the dashboard BFF.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"DASHBOARD_HTTP_HOST" env-default:"127.0.0.1"`
	Port            string        `yaml:"port" env:"DASHBOARD_HTTP_PORT" env-default:"8080"`
	CookieName      string        `yaml:"cookie_name" env:"DASHBOARD_COOKIE_NAME" env-default:"dashauth_sid"`
	SecureCookies   bool          `yaml:"secure_cookies" env:"DASHBOARD_SECURE_COOKIES" env-default:"false"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"DASHBOARD_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func (s ServerConfig) Addr() string { return net.JoinHostPort(s.Host, s.Port) }

// StubConfig configures the development auth server.
type StubConfig struct {
	Host     string        `yaml:"host" env:"DASHBOARD_STUB_HOST" env-default:"127.0.0.1"`
	Port     string        `yaml:"port" env:"DASHBOARD_STUB_PORT" env-default:"1337"`
	Secret   string        `yaml:"secret" env:"DASHBOARD_STUB_SECRET" env-default:"dev-only-secret"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"DASHBOARD_STUB_TOKEN_TTL" env-default:"1h"`
}

func (s StubConfig) Addr() string { return net.JoinHostPort(s.Host, s.Port) }

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:1337/api",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     StorageMemory,
			BoltPath:    "dashauth.db",
			BoltBucket:  "credentials",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "dashauth",
			RedisTTL:    24 * time.Hour,
		},
		Session: SessionConfig{
			RevalidateInterval: 5 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            "8080",
			CookieName:      "dashauth_sid",
			ShutdownTimeout: 10 * time.Second,
		},
		Stub: StubConfig{
			Host:     "127.0.0.1",
			Port:     "1337",
			Secret:   "dev-only-secret",
			TokenTTL: time.Hour,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the fields the engine depends on. Server and stub sections
// are validated by the binaries that use them.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: API BaseURL %q must be an absolute URL", ErrInvalidConfig, c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: API BaseURL scheme must be http or https", ErrInvalidConfig)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: API Timeout must be >= 0", ErrInvalidConfig)
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("%w: Storage RedisAddr required for redis backend", ErrInvalidConfig)
		}
		if c.Storage.RedisTTL < 0 {
			return fmt.Errorf("%w: Storage RedisTTL must be >= 0", ErrInvalidConfig)
		}
	case StorageBolt:
		if c.Storage.BoltPath == "" {
			return fmt.Errorf("%w: Storage BoltPath required for bolt backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Session.RevalidateInterval <= 0 {
		return fmt.Errorf("%w: Session RevalidateInterval must be > 0", ErrInvalidConfig)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0", ErrInvalidConfig)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: Metrics latency histograms require metrics to be enabled", ErrInvalidConfig)
	}
	if c.Metrics.OTelInterval < 0 {
		return fmt.Errorf("%w: Metrics OTelInterval must be >= 0", ErrInvalidConfig)
	}
	if c.Metrics.OTelInterval > 0 && !c.Metrics.Enabled {
		return fmt.Errorf("%w: Metrics OTelInterval requires metrics to be enabled", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: Log Format must be text or json", ErrInvalidConfig)
	}
	return nil
}
