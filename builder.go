package dashauth

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/dashauth/jwt"
	"github.com/MrEthical07/dashauth/session"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/MrEthical07/dashauth"

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config

	httpClient     *http.Client
	backend        session.Backend
	logger         *slog.Logger
	now            func() time.Time
	auditSink      AuditSink
	tracerProvider trace.TracerProvider

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration; later With* calls override fields of it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithHTTPClient sets the client used for the login call. The default client
// uses Config.API.Timeout.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithBackend supplies the credential backend directly, bypassing Config.Storage.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for token expiry checks and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// The sink only receives events when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, opens the configured storage backend when
// none was supplied, and starts the audit dispatcher. The returned Engine owns
// what Build opened and releases it on [Engine.Close].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	var closers []func() error
	backend := b.backend
	if backend == nil {
		var closer func() error
		var err error
		backend, closer, err = openBackend(cfg.Storage)
		if err != nil {
			return nil, err
		}
		if closer != nil {
			closers = append(closers, closer)
		}
	}

	client := b.httpClient
	if client == nil {
		client = &http.Client{Timeout: cfg.API.Timeout}
	}

	tp := b.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	b.built = true

	return &Engine{
		config:  cfg,
		client:  client,
		store:   session.NewStore(backend, logger),
		codec:   jwt.NewCodec(now),
		logger:  logger,
		tracer:  tp.Tracer(instrumentationName),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink, logger),
		metrics: NewMetrics(cfg.Metrics),
		now:     now,
		closers: closers,
	}, nil
}

func openBackend(cfg StorageConfig) (session.Backend, func() error, error) {
	switch cfg.Backend {
	case StorageBolt:
		backend, err := session.OpenBoltBackend(cfg.BoltPath, cfg.BoltBucket, nil)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	case StorageRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return session.NewRedisBackend(client, cfg.RedisPrefix, cfg.RedisTTL), client.Close, nil
	case StorageMemory, "":
		return session.NewMemoryBackend(), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported storage backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
