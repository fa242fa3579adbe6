package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/lecturehub/internal/auth"
	"github.com/geocoder89/lecturehub/internal/config"
	"github.com/geocoder89/lecturehub/internal/db"
	httpx "github.com/geocoder89/lecturehub/internal/http"
	"github.com/geocoder89/lecturehub/internal/http/middlewares"
	"github.com/geocoder89/lecturehub/internal/locks"
	"github.com/geocoder89/lecturehub/internal/observability"
	"github.com/geocoder89/lecturehub/internal/redisclient"
	"github.com/geocoder89/lecturehub/internal/repo"
	"github.com/geocoder89/lecturehub/internal/repo/memory"
	"github.com/geocoder89/lecturehub/internal/repo/mongo"
	"github.com/geocoder89/lecturehub/internal/repo/postgres"
	"github.com/geocoder89/lecturehub/internal/repo/sqlite"
	"github.com/geocoder89/lecturehub/internal/scheduling"
	"github.com/geocoder89/lecturehub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx, cancelInit := config.WithTimeout(30 * time.Second)
	defer cancelInit()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Enabled:     cfg.OTELEnabled,
		ServiceName: observability.ServiceName,
		Endpoint:    cfg.OTELEndpoint,
		Env:         cfg.Env,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, err := openStore(ctx, cfg, prom, log)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	// redis backs the instructor lock and the rate limiter when enabled
	var rdb *redisclient.Client
	if cfg.LockBackend == "redis" {
		rdb = redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx); err != nil {
			log.Error("redis ping failed", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	var locker locks.Locker = locks.NewKeyedMutex()
	var limiter middlewares.Counter
	if rdb != nil {
		locker = locks.NewRedisLocker(log, rdb.Raw(), "lecturehub:lock:", cfg.LockTTL())
		limiter = middlewares.NewRedisCounter(rdb.Raw(), "lecturehub:ratelimit:")
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	jwt := auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL())

	if err := db.EnsureAdminUser(ctx, store, hasher, cfg); err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}

	directory := scheduling.NewCachedDirectory(store, cfg.DirectoryCacheTTL())
	svc := scheduling.NewService(directory, store,
		scheduling.WithLocker(locker),
		scheduling.WithMetrics(prom),
		scheduling.WithLogger(log),
	)

	var draining atomic.Bool

	router := httpx.NewRouter(httpx.Deps{
		Log:       log,
		Cfg:       cfg,
		Store:     store,
		Scheduler: svc,
		JWT:       jwt,
		Hasher:    hasher,
		Prom:      prom,
		Gatherer:  reg,
		Limiter:   limiter,
		Draining:  &draining,
		Cache:     directory,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "lock", cfg.LockBackend)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	draining.Store(true)

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (repo.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.NewStore(), nil

	case "postgres":
		pool, err := db.NewPool(cfg.DBURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns), PingTimeout: 5 * time.Second})
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.NewStore(pool, prom), nil

	case "sqlite":
		return sqlite.Open(cfg.SQLitePath, prom)

	case "mongo":
		return mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB, prom)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
