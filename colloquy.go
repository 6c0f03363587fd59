package colloquy

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/pkg/adapters/file"
	loamstore "github.com/aretw0/colloquy/pkg/adapters/loam"
	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/adapters/process"
	redisstore "github.com/aretw0/colloquy/pkg/adapters/redis"
	"github.com/aretw0/colloquy/pkg/adapters/rules"
	"github.com/aretw0/colloquy/pkg/adapters/sqlite"
	"github.com/aretw0/colloquy/pkg/adapters/text"
	"github.com/aretw0/colloquy/pkg/config"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/observability"
	"github.com/aretw0/colloquy/pkg/persistence/middleware"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/aretw0/colloquy/pkg/registry"
	"github.com/aretw0/colloquy/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

// Knowledge files read from the config directory when a session starts.
const (
	TriplesFile    = "triples.txt"
	PredicatesFile = "predicates.txt"
)

// Bot is the high-level entry point. It is safe for concurrent use; each
// session is driven by one goroutine at a time.
type Bot struct {
	cfg      config.Config
	settings runtime.Settings

	responder ports.Responder
	rules     *rules.Responder
	learned   *loamstore.Store
	triples   ports.TripleStore
	store     ports.SnapshotStore
	locker    ports.DistributedLocker
	manager   *session.Manager

	normalizer ports.Normalizer
	hooks      domain.LifecycleHooks
	registerer prometheus.Registerer
	metrics    *observability.Metrics
	logger     *slog.Logger

	redis   *goredis.Client
	closers []io.Closer
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithMetrics registers the turn collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(b *Bot) {
		b.registerer = reg
	}
}

// WithResponder bypasses the configured responder.
func WithResponder(r ports.Responder) Option {
	return func(b *Bot) {
		b.responder = r
	}
}

// WithTripleStore bypasses the configured triple backend.
func WithTripleStore(s ports.TripleStore) Option {
	return func(b *Bot) {
		b.triples = s
	}
}

// WithSnapshotStore bypasses the configured session backend.
// Encryption and masking from the configuration still wrap it.
func WithSnapshotStore(s ports.SnapshotStore) Option {
	return func(b *Bot) {
		b.store = s
	}
}

// WithLocker serializes turns across processes sharing the snapshot store.
func WithLocker(l ports.DistributedLocker) Option {
	return func(b *Bot) {
		b.locker = l
	}
}

// New validates cfg and wires the collaborators it selects.
func New(cfg config.Config, opts ...Option) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bot{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}

	b.settings = runtime.Settings{
		MaxHistory:         cfg.MaxHistory,
		RepetitionCount:    cfg.RepetitionCount,
		JPTokenize:         cfg.JPTokenize,
		DefaultThat:        cfg.DefaultThat,
		DefaultTopic:       cfg.DefaultTopic,
		NullInput:          cfg.NullInput,
		RepetitionSentinel: cfg.RepetitionSentinel,
		ErrorResponse:      cfg.ErrorResponse,
		WriteLearned:       cfg.WriteLearned,
		ResponderTimeout:   cfg.ResponderTimeout,
	}
	if err := b.settings.Validate(); err != nil {
		return nil, err
	}
	b.normalizer = text.NewNormalizer(text.WithSubstitutions(cfg.Substitutions))

	if err := b.wire(); err != nil {
		_ = b.Close()
		return nil, err
	}

	if b.registerer != nil {
		b.metrics = observability.NewMetrics(b.registerer)
		b.hooks = b.hooks.Merge(b.metrics.Hooks())
	}
	b.hooks = b.hooks.Merge(observability.LoggingHooks(b.logger))

	mgrOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(b.locker))
	}
	b.manager = session.NewManager(b.store, b, mgrOpts...)
	return b, nil
}

func (b *Bot) wire() error {
	if b.triples == nil {
		triples, err := b.openTriples()
		if err != nil {
			return err
		}
		b.triples = triples
	}

	store, err := b.openSnapshots()
	if err != nil {
		return err
	}
	b.store = store

	if b.locker == nil && b.cfg.Storage.Redis.Lock {
		b.locker = redisstore.NewLocker(b.redisClient(), b.redisPrefix())
	}

	if b.responder == nil {
		responder, err := b.openResponder()
		if err != nil {
			return err
		}
		b.responder = responder
	}
	return nil
}

func (b *Bot) redisClient() *goredis.Client {
	if b.redis == nil {
		r := b.cfg.Storage.Redis
		b.redis = redisstore.NewClient(r.Addr, r.Password, r.DB)
		b.closers = append(b.closers, b.redis)
	}
	return b.redis
}

func (b *Bot) redisPrefix() string {
	if p := b.cfg.Storage.Redis.Prefix; p != "" {
		return p
	}
	return redisstore.DefaultPrefix
}

func (b *Bot) openTriples() (ports.TripleStore, error) {
	switch b.cfg.Storage.Triples {
	case config.BackendSQLite:
		store, err := sqlite.Open(b.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, store)
		return store, nil
	case config.BackendRedis:
		return redisstore.NewTripleStore(b.redisClient(), ""), nil
	default:
		return memory.NewTripleStore(), nil
	}
}

func (b *Bot) openSnapshots() (ports.SnapshotStore, error) {
	store := b.store
	if store == nil {
		switch b.cfg.Storage.Sessions {
		case config.BackendFile:
			store = file.New(b.cfg.Storage.SessionsDir)
		case config.BackendRedis:
			store = redisstore.NewFromClient(b.redisClient(),
				redisstore.WithPrefix(b.redisPrefix()),
				redisstore.WithTTL(b.cfg.Storage.Redis.TTL),
			)
		default:
			store = memory.NewStore()
		}
	}

	var mws []middleware.Middleware
	if len(b.cfg.Storage.MaskPredicates) > 0 {
		mw, err := middleware.NewPIIMiddleware(b.cfg.Storage.MaskPredicates)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if b.cfg.Storage.EncryptionKey != "" {
		enc, err := encryptionConfig(b.cfg.Storage)
		if err != nil {
			return nil, err
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

func encryptionConfig(s config.StorageConfig) (middleware.EncryptionConfig, error) {
	decode := func(k string) ([]byte, error) {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("%w: encryption key is not base64: %v", domain.ErrInvalidConfig, err)
		}
		return key, nil
	}

	active, err := decode(s.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, err
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range s.FallbackKeys {
		key, err := decode(k)
		if err != nil {
			return middleware.EncryptionConfig{}, err
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return cfg, nil
}

func (b *Bot) openResponder() (ports.Responder, error) {
	if b.cfg.Responder.Kind == config.ResponderProcess {
		r := process.NewResponder(b.cfg.Responder.Command, b.cfg.Responder.Args...)
		r.Dir = b.cfg.ConfigDir
		return r, nil
	}

	rulesPath := b.configPath(b.cfg.Responder.Rules)
	f, err := rules.LoadFile(rulesPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		b.logger.Debug("rules file not found, using built-in rules", "path", rulesPath)
		f = rules.DefaultFile()
	case err != nil:
		return nil, err
	}

	tools, err := process.LoadTools(b.configPath(b.cfg.Responder.Tools))
	if err != nil {
		return nil, err
	}
	runner := process.NewRunner(process.WithRegistry(tools), process.WithBaseDir(b.cfg.ConfigDir))
	commands := registry.NewRegistry(registry.WithFallback(runner))
	registry.RegisterBuiltins(commands, nil)

	ruleOpts := []rules.Option{
		rules.WithExecutor(commands),
		rules.WithLogger(b.logger),
	}

	if dir := b.cfg.Storage.LearnedDir; dir != "" && (b.cfg.WriteLearned || exists(dir)) {
		learned, err := loamstore.Open(dir)
		if err != nil {
			return nil, err
		}
		b.learned = learned
		ruleOpts = append(ruleOpts, rules.WithSink(learned))
	}

	r, err := rules.New(f, ruleOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	if b.learned != nil {
		cats, err := b.learned.LoadCategories(context.Background())
		if err != nil {
			b.logger.Warn("failed to restore learned categories", "path", b.cfg.Storage.LearnedDir, "error", err)
		} else {
			r.Restore(cats)
			b.logger.Debug("restored learned categories", "count", len(cats))
		}
	}
	b.rules = r
	return r, nil
}

// configPath resolves name against the config directory.
func (b *Bot) configPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(b.cfg.ConfigDir, name)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Config returns the configuration the bot was built from.
func (b *Bot) Config() config.Config { return b.cfg }

// Logger returns the bot logger.
func (b *Bot) Logger() *slog.Logger { return b.logger }

// Triples returns the shared knowledge store.
func (b *Bot) Triples() ports.TripleStore { return b.triples }

// Store returns the snapshot store, including any configured middleware.
func (b *Bot) Store() ports.SnapshotStore { return b.store }

// Manager returns the session manager used by Respond.
func (b *Bot) Manager() *session.Manager { return b.manager }

// Metrics returns the registered collectors, or nil without WithMetrics.
func (b *Bot) Metrics() *observability.Metrics { return b.metrics }

// IngestTriples loads a triples file into the shared store and returns the
// number of triples accepted.
func (b *Bot) IngestTriples(ctx context.Context, path string) int {
	return runtime.LoadTriples(ctx, path, b.triples, b.logger)
}

// Respond runs one turn of sessionID, creating the session if needed, and
// stores the resulting snapshot.
func (b *Bot) Respond(ctx context.Context, sessionID, input string) (domain.TurnResult, error) {
	return b.manager.Respond(ctx, sessionID, input)
}

// Close releases the storage connections the bot opened.
func (b *Bot) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
