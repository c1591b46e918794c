// Package config loads the loaves configuration from a .env file, a YAML
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/loaves/internal/logging"
	"github.com/aretw0/loaves/pkg/persistence/middleware"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is read when Options.ConfigFile is empty.
	DefaultConfigFile = "loaves.yaml"
	// DefaultEnvFile is read when Options.EnvFile is empty.
	DefaultEnvFile = ".env"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

// Config is the full application configuration.
type Config struct {
	// Addr is the HTTP listen address. When empty, ":<Port>" is used.
	Addr      string        `mapstructure:"addr"`
	Port      int           `mapstructure:"port"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Catalog   string        `mapstructure:"catalog"`
	Metrics   bool          `mapstructure:"metrics"`
	Session   SessionConfig `mapstructure:"session"`
	Store     StoreConfig   `mapstructure:"store"`
}

// SessionConfig controls the session cookie and lifetime.
type SessionConfig struct {
	Secret        string        `mapstructure:"secret"`
	CookieName    string        `mapstructure:"cookie_name"`
	Secure        bool          `mapstructure:"secure"`
	TTL           time.Duration `mapstructure:"ttl"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	EncryptionKey string        `mapstructure:"encryption_key"`
	// SweepInterval is how often the memory and file stores drop expired
	// sessions. Zero disables the sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Driver string      `mapstructure:"driver"`
	Path   string      `mapstructure:"path"`
	Lock   string      `mapstructure:"lock"`
	Redis  RedisConfig `mapstructure:"redis"`
	Mongo  MongoConfig `mapstructure:"mongo"`
}

// RedisConfig configures the Redis store and locker.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// MongoConfig configures the MongoDB store.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

func defaults() map[string]any {
	return map[string]any{
		"port":       3000,
		"log_level":  "info",
		"log_format": "text",
		"metrics":    true,
		"session": map[string]any{
			"cookie_name":    "loaves.sid",
			"ttl":            "336h",
			"lock_ttl":       "30s",
			"sweep_interval": "10m",
		},
		"store": map[string]any{
			"driver": DriverMemory,
			"path":   ".loaves/sessions",
			"lock":   "local",
			"redis": map[string]any{
				"addr":   "localhost:6379",
				"prefix": "loaves:session:",
			},
			"mongo": map[string]any{
				"database":   "loaves",
				"collection": "sessions",
			},
		},
	}
}

// envBindings maps environment variables to configuration keys. When several
// variables bind the same key, the later one wins.
var envBindings = []struct {
	env string
	key string
}{
	{"PORT", "port"},
	{"SESSION_SECRET", "session.secret"},
	{"MONGODB_URI", "store.mongo.uri"},

	{"LOAVES_ADDR", "addr"},
	{"LOAVES_PORT", "port"},
	{"LOAVES_LOG_LEVEL", "log_level"},
	{"LOAVES_LOG_FORMAT", "log_format"},
	{"LOAVES_CATALOG", "catalog"},
	{"LOAVES_METRICS", "metrics"},
	{"LOAVES_SESSION_SECRET", "session.secret"},
	{"LOAVES_COOKIE_NAME", "session.cookie_name"},
	{"LOAVES_COOKIE_SECURE", "session.secure"},
	{"LOAVES_SESSION_TTL", "session.ttl"},
	{"LOAVES_LOCK_TTL", "session.lock_ttl"},
	{"LOAVES_ENCRYPTION_KEY", "session.encryption_key"},
	{"LOAVES_SWEEP_INTERVAL", "session.sweep_interval"},
	{"LOAVES_STORE", "store.driver"},
	{"LOAVES_STORE_PATH", "store.path"},
	{"LOAVES_LOCK", "store.lock"},
	{"LOAVES_REDIS_ADDR", "store.redis.addr"},
	{"LOAVES_REDIS_PASSWORD", "store.redis.password"},
	{"LOAVES_REDIS_DB", "store.redis.db"},
	{"LOAVES_REDIS_PREFIX", "store.redis.prefix"},
	{"LOAVES_MONGO_URI", "store.mongo.uri"},
	{"LOAVES_MONGO_DATABASE", "store.mongo.database"},
	{"LOAVES_MONGO_COLLECTION", "store.mongo.collection"},
}

// Options controls where Load reads from.
type Options struct {
	// ConfigFile is the YAML file. A missing default file is ignored; a
	// missing explicit file is an error.
	ConfigFile string

	// EnvFile is the dotenv file, with the same rules as ConfigFile.
	EnvFile string

	// LookupEnv reads the environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration. Variables already in the environment take
// precedence over the env file, which takes precedence over the YAML file.
func Load(opts Options) (*Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	getenv := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	fromFile, err := readConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	values := defaults()
	merge(values, fromFile)
	for _, b := range envBindings {
		if v, ok := getenv(b.env); ok && v != "" {
			setPath(values, b.key, v)
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(durationHook, mapstructure.StringToTimeDurationHookFunc()),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(values); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

func readConfigFile(path string) (map[string]any, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return values, nil
}

// durationHook accepts a day suffix ("14d") on top of time.ParseDuration.
func durationHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}
	return s, nil
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		if v == nil {
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

func setPath(m map[string]any, path, value string) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: want text or json", c.LogFormat))
	}
	if c.Addr == "" && (c.Port < 1 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}

	if c.Session.TTL < 0 {
		errs = append(errs, fmt.Errorf("session ttl must not be negative"))
	}
	if c.Session.LockTTL <= 0 {
		errs = append(errs, fmt.Errorf("session lock_ttl must be positive"))
	}
	if c.Session.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("session sweep_interval must not be negative"))
	}
	if c.Session.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Session.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("invalid encryption key: %w", err))
		}
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("file store requires store.path"))
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("redis store requires store.redis.addr"))
		}
	case DriverMongo:
		if c.Store.Mongo.URI == "" {
			errs = append(errs, fmt.Errorf("mongo store requires store.mongo.uri (MONGODB_URI)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Store.Lock {
	case "local":
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("redis lock requires store.redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown lock %q: want local or redis", c.Store.Lock))
	}

	return errors.Join(errs...)
}
