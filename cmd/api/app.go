package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/metrics"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
)

type app struct {
	cfg    config.Config
	db     *sqlx.DB
	redis  *redis.Client
	router *gin.Engine
	worker *workers.StreakWorker
}

// newApp opens the stores, migrates the schema and wires every layer.
// Redis is optional: when it cannot be reached the API runs without the
// habit cache and the rate limiter.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)

	dsn := cfg.Database.DSN()
	log.Printf("Connecting to %s database...", cfg.Database.Driver)

	db, err := repository.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == repository.DriverPostgres {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxOpenConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Println("Database connected successfully.")

	a := &app{cfg: cfg, db: db}

	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("[WARN] redis unavailable, running without cache and rate limiting: %v", err)
		} else {
			a.redis = rdb
		}
	}

	var habitRepo domain.HabitRepository = repository.NewSQLHabitRepository(db)
	if a.redis != nil {
		cached := repository.NewCachedHabitRepository(habitRepo, a.redis, cfg.Redis.CacheTTL)
		cached.OnLookup = metrics.ObserveCacheLookup
		habitRepo = cached
	}
	entryRepo := repository.NewSQLEntryRepository(db)
	userRepo := repository.NewSQLUserRepository(db)
	tx := repository.NewSQLTransactor(db)

	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, userRepo)
	streaks := services.NewStreakService(habitRepo, entryRepo)
	habitService := services.NewHabitService(habitRepo, entryRepo, tx, streaks)
	entryService := services.NewEntryService(entryRepo, habitRepo, tx, streaks)

	a.worker = workers.NewStreakWorker(streaks, cfg.Streaks.SweepInterval)
	a.worker.OnSweep = metrics.ObserveSweep

	deps := adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(services.NewAuthService(userRepo), tokens),
		HabitHandler:    adapterHTTP.NewHabitHandler(habitService, streaks),
		EntryHandler:    adapterHTTP.NewEntryHandler(entryService),
		CalendarHandler: adapterHTTP.NewCalendarHandler(services.NewCalendarService(habitRepo, entryRepo)),
		StatsHandler:    adapterHTTP.NewStatsHandler(services.NewStatsService(habitRepo, entryRepo)),
		Tokens:          tokens,
		DB:              db,
		RateLimit:       cfg.RateLimit.Limit,
		RateLimitWindow: cfg.RateLimit.Window,
		StartTime:       time.Now(),
	}
	if a.redis != nil {
		deps.Redis = a.redis
	}
	a.router = adapterHTTP.NewRouter(deps)

	return a, nil
}

func (a *app) server() *http.Server {
	return &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("[ERROR] closing redis: %v", err)
		}
	}
	if err := a.db.Close(); err != nil {
		log.Printf("[ERROR] closing database: %v", err)
	}
}
