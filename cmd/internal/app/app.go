// Package app wires the hello server runtime: config, logging, storage,
// sessions and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gltdhd/Spring-MVC-2/cmd/identity"
	authapi "github.com/gltdhd/Spring-MVC-2/cmd/internal/auth/api"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/auth/session"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/item"
	itemapi "github.com/gltdhd/Spring-MVC-2/cmd/internal/item/api"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/metrics"
	"github.com/gltdhd/Spring-MVC-2/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App is the hello server runtime. It owns the Postgres pool and Redis
// client when those are configured.
type App struct {
	cfg Config
	log Logger

	metrics *metrics.Metrics

	dbPool *pgxpool.Pool
	redis  *redis.Client

	members  identity.Store
	items    item.Store
	sessions session.Backend[identity.Member]

	handler http.Handler
}

// New constructs a fully wired App from cfg. Stores are migrated and, if
// enabled, seeded before New returns.
func New(ctx context.Context, cfg Config, log Logger) (_ *App, err error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogColor)
	}
	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	pw, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}
	if err := a.openSessions(ctx, sessCfg); err != nil {
		return nil, err
	}

	authn := identity.NewAuthenticator(a.members, pw)
	if cfg.SeedDemoData {
		if err := seedDemoData(ctx, log, authn, a.members, a.items); err != nil {
			return nil, err
		}
	}

	authCfg := authapi.LoadConfigFromEnv()
	authHandler, err := authapi.NewHandler(log, authCfg, authn, a.sessions, authapi.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}
	itemHandler, err := itemapi.NewHandler(log, a.items, a.metrics, authCfg.MaxBodyBytes)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	a.registerHTTP(mux, authHandler, itemHandler)
	a.handler = WithRequestID(WithSecurityHeaders(WithRequestLogging(mux, log, a.metrics)))
	return a, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"url", runtimeBaseURL(a.cfg.HTTPAddr),
		"db_enabled", a.dbPool != nil,
		"redis_sessions", a.redis != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// Close releases the pool and Redis client. It is safe to call twice.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis.close.fail", "err", err)
		}
		a.redis = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

// openStores picks Postgres when HELLO_DATABASE_URL is set and in-memory
// stores otherwise.
func (a *App) openStores(ctx context.Context) error {
	if a.cfg.DatabaseURL == "" {
		a.log.Info("db.disabled.inmemory_store")
		a.members = identity.NewMemoryStore()
		a.items = item.NewMemoryStore()
		return nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	a.dbPool = pool

	members, err := identity.NewPostgresStore(pool, identity.WithSchema(a.cfg.DBSchema))
	if err != nil {
		return err
	}
	if err := members.Migrate(ctx); err != nil {
		return fmt.Errorf("db: migrate members: %w", err)
	}
	items, err := item.NewPostgresStore(pool, a.cfg.DBSchema)
	if err != nil {
		return err
	}
	if err := items.Migrate(ctx); err != nil {
		return fmt.Errorf("db: migrate items: %w", err)
	}

	a.log.Info("db.enabled.postgres_store", "schema", a.cfg.DBSchema)
	a.members = members
	a.items = items
	return nil
}

// openSessions picks Redis when HELLO_REDIS_ADDR is set and the in-process
// manager otherwise.
func (a *App) openSessions(ctx context.Context, cfg session.Config) error {
	if !cfg.RedisEnabled() {
		local := session.NewLocal[identity.Member](nil)
		a.metrics.RegisterActiveSessions(func() float64 { return float64(local.Manager().Len()) })
		a.sessions = local
		a.log.Info("session.backend", "kind", "local")
		return nil
	}

	client, err := session.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	a.redis = client
	a.sessions = session.NewRedisBackend[identity.Member](client, cfg)
	a.log.Info("session.backend", "kind", "redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// runtimeBaseURL turns a listen address into a URL a local client can use.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
