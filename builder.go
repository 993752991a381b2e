package hallpass

import (
	"errors"

	"github.com/hallpass-io/hallpass/password"
	"github.com/hallpass-io/hallpass/session"
	"github.com/hallpass-io/hallpass/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Manager]. There is no package-level singleton and no
// hidden process-wide client: the Redis client (or a substitute store), the
// directory, and the optional collaborators are all injected here.
type Builder struct {
	config Config

	redis     redis.UniversalClient
	store     SessionStore
	directory Directory
	admission Admission
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig]. Signing secrets must
// still be supplied via [Builder.WithConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. The config is cloned; later mutation
// of the argument does not affect the built Manager.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore supplies a custom [SessionStore], bypassing the Redis adapter.
// Intended for tests and for callers with their own store wrapper.
func (b *Builder) WithStore(store SessionStore) *Builder {
	b.store = store
	return b
}

// WithDirectory supplies the principal-lookup collaborator. Required.
func (b *Builder) WithDirectory(directory Directory) *Builder {
	b.directory = directory
	return b
}

// WithAdmission supplies the external admission-control collaborator.
// Optional; nil disables admission checks.
func (b *Builder) WithAdmission(admission Admission) *Builder {
	b.admission = admission
	return b
}

// WithAuditSink supplies the audit destination. Only consulted when
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and dependencies and constructs the
// [Manager]. A Builder can build at most once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.directory == nil {
		return nil, errors.New("directory required")
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		store = session.NewStore(b.redis, cfg.Store.KeyPrefix, cfg.Store.OpTimeout)
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  cloneBytes(cfg.Token.AccessSecret),
		RefreshSecret: cloneBytes(cfg.Token.RefreshSecret),
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	verifier, err := password.NewVerifier(password.Config{
		Cost:      cfg.Password.Cost,
		MinLength: cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		config:    cfg,
		codec:     codec,
		store:     store,
		directory: b.directory,
		admission: b.admission,
		verifier:  verifier,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
	}

	b.built = true
	return manager, nil
}
