package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/loaves/internal/config"
	"github.com/aretw0/loaves/internal/logging"
	"github.com/aretw0/loaves/pkg/adapters/memory"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load(config.Options{LookupEnv: func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}})
	require.NoError(t, err)
	return cfg
}

func bootstrap(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := Bootstrap(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func exercise(t *testing.T, app *App) {
	t.Helper()
	ctx := context.Background()

	_, err := app.Service.Add(ctx, "s1", domain.LineItem{ID: "baguette", Price: 3.25})
	require.NoError(t, err)
	c, err := app.Service.Add(ctx, "s1", domain.LineItem{ID: "baguette"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Quantity("baguette"))

	ids, err := app.Backend.Store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "s1")
}

func TestBootstrap_Memory(t *testing.T) {
	app := bootstrap(t, loadConfig(t, nil))
	exercise(t, app)

	products, err := app.Catalog.Products(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products, "the embedded menu is served by default")
	assert.NotNil(t, app.Metrics)
	assert.Nil(t, app.Backend.Locker)
}

func TestBootstrap_File(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"LOAVES_STORE": "file"})
	cfg.Store.Path = filepath.Join(t.TempDir(), "sessions")

	exercise(t, bootstrap(t, cfg))
}

func TestBootstrap_RedisWithLockAndEncryption(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t, map[string]string{
		"LOAVES_STORE":          "redis",
		"LOAVES_LOCK":           "redis",
		"LOAVES_REDIS_ADDR":     mr.Addr(),
		"LOAVES_ENCRYPTION_KEY": "correct horse battery staple",
	})

	app := bootstrap(t, cfg)
	require.NotNil(t, app.Backend.Locker)
	exercise(t, app)

	raw, err := mr.Get("loaves:session:s1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "baguette", "carts are sealed at rest")
}

func TestBootstrap_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := loadConfig(t, map[string]string{"LOAVES_STORE": "redis", "LOAVES_REDIS_ADDR": addr})
	_, err := Bootstrap(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestBootstrap_BadCatalog(t *testing.T) {
	cfg := loadConfig(t, nil)
	cfg.Catalog = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Bootstrap(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestApp_Handler(t *testing.T) {
	app := bootstrap(t, loadConfig(t, map[string]string{"SESSION_SECRET": "s"}))
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/add-to-cart", "application/json", strings.NewReader(`{"id":"baguette","price":"3.25"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `loaves_cart_events_total{event="item_added"} 1`)
}

func TestApp_StartJanitor(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"LOAVES_SESSION_TTL":    "1ms",
		"LOAVES_SWEEP_INTERVAL": "5ms",
	})
	app := bootstrap(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := app.Service.Add(ctx, "abandoned", domain.LineItem{ID: "baguette", Price: 3.25})
	require.NoError(t, err)

	store, ok := app.Backend.Sweeper.(*memory.Store)
	require.True(t, ok, "the memory store sweeps itself")
	require.Equal(t, 1, store.Len())

	app.StartJanitor(ctx)
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestApp_StartJanitor_NativeExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	app := bootstrap(t, loadConfig(t, map[string]string{
		"LOAVES_STORE":      "redis",
		"LOAVES_REDIS_ADDR": mr.Addr(),
	}))

	assert.Nil(t, app.Backend.Sweeper, "redis expires keys on its own")
}
