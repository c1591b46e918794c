package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/loaves/internal/config"
	"github.com/aretw0/loaves/pkg/adapters/file"
	"github.com/aretw0/loaves/pkg/adapters/memory"
	"github.com/aretw0/loaves/pkg/adapters/mongo"
	redisAdapter "github.com/aretw0/loaves/pkg/adapters/redis"
	"github.com/aretw0/loaves/pkg/cart"
	"github.com/aretw0/loaves/pkg/catalog"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/observability"
	"github.com/aretw0/loaves/pkg/persistence/middleware"
	"github.com/aretw0/loaves/pkg/ports"
	"github.com/aretw0/loaves/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Backend is the configured session store with its optional distributed locker.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker

	// Sweeper is the raw store when it only evicts lazily (memory, file).
	Sweeper ports.Sweeper

	closers []func() error
}

// Close releases the connections held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenBackend connects the store selected by cfg.Store.Driver and wraps it
// with the logging and (when a key is configured) encryption middleware.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}
	var redisClient *backend.Client

	newRedisClient := func() (*backend.Client, error) {
		if redisClient != nil {
			return redisClient, nil
		}
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
		b.closers = append(b.closers, client.Close)
		redisClient = client
		return client, nil
	}

	var store ports.SessionStore
	switch cfg.Store.Driver {
	case config.DriverMemory:
		ms := memory.NewStore()
		b.Sweeper = ms
		store = ms
	case config.DriverFile:
		fs := file.New(cfg.Store.Path)
		b.Sweeper = fs
		store = fs
	case config.DriverRedis:
		client, err := newRedisClient()
		if err != nil {
			return nil, err
		}
		store = redisAdapter.NewFromClient(client, redisAdapter.WithPrefix(cfg.Store.Redis.Prefix))
	case config.DriverMongo:
		ms, err := mongo.Connect(ctx, cfg.Store.Mongo.URI, cfg.Store.Mongo.Database, cfg.Store.Mongo.Collection)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, ms.Close)
		store = ms
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.Lock == "redis" {
		client, err := newRedisClient()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Locker = redisAdapter.NewLocker(client, cfg.Store.Redis.Prefix)
	}

	mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}
	if cfg.Session.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Session.EncryptionKey)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	b.Store = middleware.Chain(store, mws...)

	logger.Debug("Session store ready", "driver", cfg.Store.Driver, "lock", cfg.Store.Lock, "encrypted", cfg.Session.EncryptionKey != "")
	return b, nil
}

// App holds the wired services of a running loaves process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Backend  *Backend
	Sessions *session.Manager
	Service  *cart.Service
	Catalog  ports.Catalog
	Metrics  *observability.Metrics
}

// Bootstrap wires the store, session manager, cart service, catalog and metrics.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	products, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	b, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	managerOpts := []session.Option{
		session.WithTTL(cfg.Session.TTL),
		session.WithLockTTL(cfg.Session.LockTTL),
		session.WithLogger(logger),
	}
	if b.Locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(b.Locker))
	}
	sessions := session.NewManager(b.Store, managerOpts...)

	hooks := []domain.CartHooks{createDebugHooks(logger)}
	var metrics *observability.Metrics
	if cfg.Metrics {
		metrics = observability.NewMetrics()
		hooks = append(hooks, metrics.Hooks())
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Backend:  b,
		Sessions: sessions,
		Service: cart.NewService(sessions,
			cart.WithHooks(domain.MergeHooks(hooks...)),
			cart.WithLogger(logger),
		),
		Catalog: products,
		Metrics: metrics,
	}, nil
}

// StartJanitor sweeps expired sessions in the background until ctx is done.
// It does nothing for stores with native expiry or when the interval is zero.
func (a *App) StartJanitor(ctx context.Context) {
	if a.Backend.Sweeper == nil || a.Config.Session.SweepInterval <= 0 {
		return
	}
	go session.RunJanitor(ctx, a.Backend.Sweeper, a.Config.Session.SweepInterval, a.Logger)
}

// Close releases the backend connections.
func (a *App) Close() error {
	return a.Backend.Close()
}
