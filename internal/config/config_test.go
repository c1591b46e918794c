package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{LookupEnv: env(nil)})
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, 14*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30*time.Second, cfg.Session.LockTTL)
	assert.Equal(t, 10*time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "loaves.sid", cfg.Session.CookieName)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "local", cfg.Store.Lock)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "sessions", cfg.Store.Mongo.Collection)
}

func TestLoad_YAMLAndEnvPrecedence(t *testing.T) {
	yamlPath := writeFile(t, "loaves.yaml", `
log_level: debug
metrics: false
session:
  ttl: 2d
store:
  driver: redis
  redis:
    addr: redis:6379
    db: 1
`)

	cfg, err := Load(Options{
		ConfigFile: yamlPath,
		LookupEnv: env(map[string]string{
			"LOAVES_REDIS_DB":      "3",
			"LOAVES_METRICS":       "true",
			"LOAVES_SESSION_TTL":   "90m",
			"LOAVES_COOKIE_SECURE": "1",
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 3, cfg.Store.Redis.DB, "environment wins over YAML")
	assert.True(t, cfg.Metrics)
	assert.True(t, cfg.Session.Secure)
	assert.Equal(t, 90*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "loaves:session:", cfg.Store.Redis.Prefix, "defaults fill the gaps")
}

func TestLoad_DayDurations(t *testing.T) {
	yamlPath := writeFile(t, "loaves.yaml", "session:\n  ttl: 2d\n")

	cfg, err := Load(Options{ConfigFile: yamlPath, LookupEnv: env(nil)})
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, cfg.Session.TTL)
}

func TestLoad_CompatibilityVariables(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{LookupEnv: env(map[string]string{
		"PORT":           "8081",
		"SESSION_SECRET": "s3cret",
		"MONGODB_URI":    "mongodb://db:27017",
		"LOAVES_STORE":   "mongo",
	})})
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.ListenAddr())
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.Mongo.URI)

	cfg, err = Load(Options{LookupEnv: env(map[string]string{
		"SESSION_SECRET":        "old",
		"LOAVES_SESSION_SECRET": "new",
		"LOAVES_ADDR":           "127.0.0.1:9000",
		"PORT":                  "8081",
	})})
	require.NoError(t, err)
	assert.Equal(t, "new", cfg.Session.Secret)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())
}

func TestLoad_EnvFile(t *testing.T) {
	envPath := writeFile(t, "file.env", "SESSION_SECRET=from-file\nPORT=4000\n")

	cfg, err := Load(Options{
		ConfigFile: writeFile(t, "loaves.yaml", "{}\n"),
		EnvFile:    envPath,
		LookupEnv:  env(map[string]string{"PORT": "5000"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Session.Secret)
	assert.Equal(t, ":5000", cfg.ListenAddr(), "the process environment wins over the env file")
}

func TestLoad_MissingExplicitFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := Load(Options{ConfigFile: missing, LookupEnv: env(nil)})
	assert.Error(t, err)

	_, err = Load(Options{EnvFile: missing, LookupEnv: env(nil)})
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	yamlPath := writeFile(t, "loaves.yaml", "stroe:\n  driver: file\n")

	_, err := Load(Options{ConfigFile: yamlPath, LookupEnv: env(nil)})
	assert.ErrorContains(t, err, "stroe")
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := map[string]map[string]string{
		"driver":       {"LOAVES_STORE": "etcd"},
		"mongo uri":    {"LOAVES_STORE": "mongo"},
		"log level":    {"LOAVES_LOG_LEVEL": "loud"},
		"log format":   {"LOAVES_LOG_FORMAT": "xml"},
		"port":         {"PORT": "70000"},
		"lock":         {"LOAVES_LOCK": "zookeeper"},
		"ttl":          {"LOAVES_SESSION_TTL": "-1h"},
		"lock ttl":     {"LOAVES_LOCK_TTL": "0s"},
		"not a port":   {"PORT": "http"},
		"bad duration": {"LOAVES_SESSION_TTL": "soon"},
		"sweep":        {"LOAVES_SWEEP_INTERVAL": "-1m"},
	}

	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(Options{LookupEnv: env(vars)})
			assert.Error(t, err)
		})
	}
}

func TestValidate_EncryptionKey(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{LookupEnv: env(map[string]string{"LOAVES_ENCRYPTION_KEY": "any passphrase"})})
	require.NoError(t, err)
	assert.Equal(t, "any passphrase", cfg.Session.EncryptionKey)
}
