// Package config loads colloquy settings from a YAML file with an
// environment overlay.
//
// Every key may be overridden by a COLLOQUY_ prefixed variable; nested keys
// are joined with a double underscore, e.g. COLLOQUY_STORAGE__SESSIONS=redis.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override file values.
const EnvPrefix = "COLLOQUY_"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Responder kinds.
const (
	ResponderRules   = "rules"
	ResponderProcess = "process"
)

// Config is the full colloquy configuration.
type Config struct {
	MaxHistory         int           `yaml:"max_history" mapstructure:"max_history"`
	RepetitionCount    int           `yaml:"repetition_count" mapstructure:"repetition_count"`
	JPTokenize         bool          `yaml:"jp_tokenize" mapstructure:"jp_tokenize"`
	DefaultThat        string        `yaml:"default_that" mapstructure:"default_that"`
	DefaultTopic       string        `yaml:"default_topic" mapstructure:"default_topic"`
	NullInput          string        `yaml:"null_input" mapstructure:"null_input"`
	RepetitionSentinel string        `yaml:"repetition_sentinel" mapstructure:"repetition_sentinel"`
	ErrorResponse      string        `yaml:"error_response" mapstructure:"error_response"`
	ConfigDir          string        `yaml:"config_dir" mapstructure:"config_dir"`
	WriteLearned       bool          `yaml:"write_learned" mapstructure:"write_learned"`
	ResponderTimeout   time.Duration `yaml:"responder_timeout" mapstructure:"responder_timeout"`
	LogLevel           string        `yaml:"log_level" mapstructure:"log_level"`

	// Substitutions are applied by the normalizer after whitespace cleanup.
	Substitutions map[string]string `yaml:"substitutions" mapstructure:"substitutions"`

	Responder ResponderConfig `yaml:"responder" mapstructure:"responder"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// ResponderConfig selects what answers sentences.
type ResponderConfig struct {
	// Kind is "rules" or "process".
	Kind string `yaml:"kind" mapstructure:"kind"`
	// Rules is the YAML rule file used by the rules responder.
	Rules string `yaml:"rules" mapstructure:"rules"`
	// Command runs once per sentence for the process responder.
	Command string   `yaml:"command" mapstructure:"command"`
	Args    []string `yaml:"args" mapstructure:"args"`
	// Tools lists the external commands rule templates may run.
	Tools string `yaml:"tools" mapstructure:"tools"`
}

// StorageConfig selects the session and knowledge backends.
type StorageConfig struct {
	Sessions    string      `yaml:"sessions" mapstructure:"sessions"`
	SessionsDir string      `yaml:"sessions_dir" mapstructure:"sessions_dir"`
	Triples     string      `yaml:"triples" mapstructure:"triples"`
	SQLitePath  string      `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	LearnedDir  string      `yaml:"learned_dir" mapstructure:"learned_dir"`
	Redis       RedisConfig `yaml:"redis" mapstructure:"redis"`

	// EncryptionKey is a base64 AES-256 key; when set, snapshots are sealed.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for reading.
	FallbackKeys []string `yaml:"fallback_keys" mapstructure:"fallback_keys"`
	// MaskPredicates are regular expressions; matching predicate values are
	// replaced before a snapshot is stored.
	MaskPredicates []string `yaml:"mask_predicates" mapstructure:"mask_predicates"`
}

// RedisConfig addresses the redis server shared by the redis backends.
type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// Lock serializes turns of one session across replicas.
	Lock bool `yaml:"lock" mapstructure:"lock"`
}

// ServerConfig configures the HTTP and MCP surfaces.
type ServerConfig struct {
	Addr    string `yaml:"addr" mapstructure:"addr"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		MaxHistory:         domain.DefaultMaxHistory,
		RepetitionCount:    domain.DefaultRepetitionCount,
		DefaultThat:        domain.DefaultThat,
		DefaultTopic:       domain.DefaultTopic,
		NullInput:          domain.DefaultNullInput,
		RepetitionSentinel: domain.DefaultRepetitionSentinel,
		ErrorResponse:      domain.DefaultErrorResponse,
		ConfigDir:          ".",
		LogLevel:           "info",
		Responder: ResponderConfig{
			Kind:  ResponderRules,
			Rules: "rules.yaml",
			Tools: "tools.yaml",
		},
		Storage: StorageConfig{
			Sessions:    BackendMemory,
			SessionsDir: ".colloquy/sessions",
			Triples:     BackendMemory,
			SQLitePath:  ".colloquy/triples.db",
			LearnedDir:  ".colloquy/learned",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads path (if it exists), overlays the environment and validates.
// An empty or missing path yields the defaults plus the environment.
func Load(path string) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			if raw == nil {
				raw = map[string]any{}
			}
		}
	}
	overlayEnv(raw, os.Environ())

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}

// overlayEnv copies COLLOQUY_* variables into raw, creating nested maps for
// keys that contain "__".
func overlayEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__")

		node := raw
		for _, part := range path[:len(path)-1] {
			next, ok := node[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[part] = next
			}
			node = next
		}
		node[path[len(path)-1]] = value
	}
}

// Validate reports the first setting a session cannot run with.
func (c Config) Validate() error {
	if c.MaxHistory < 0 {
		return fmt.Errorf("%w: max_history must not be negative", domain.ErrInvalidConfig)
	}
	if c.RepetitionCount < 0 {
		return fmt.Errorf("%w: repetition_count must not be negative", domain.ErrInvalidConfig)
	}
	if c.ErrorResponse == "" {
		return fmt.Errorf("%w: error_response must not be empty", domain.ErrInvalidConfig)
	}
	if c.ResponderTimeout < 0 {
		return fmt.Errorf("%w: responder_timeout must not be negative", domain.ErrInvalidConfig)
	}
	switch c.Responder.Kind {
	case ResponderRules:
	case ResponderProcess:
		if c.Responder.Command == "" {
			return fmt.Errorf("%w: responder.command is required for the process responder", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown responder kind %q", domain.ErrInvalidConfig, c.Responder.Kind)
	}
	switch c.Storage.Sessions {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown session storage %q", domain.ErrInvalidConfig, c.Storage.Sessions)
	}
	switch c.Storage.Triples {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown triple storage %q", domain.ErrInvalidConfig, c.Storage.Triples)
	}
	return nil
}
