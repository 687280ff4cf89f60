package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/application/profile"
	"github.com/baechuer/blood-drive-service/internal/audit"
	"github.com/baechuer/blood-drive-service/internal/config"
	rediscache "github.com/baechuer/blood-drive-service/internal/infrastructure/caching/redis"
	"github.com/baechuer/blood-drive-service/internal/infrastructure/caching/statscache"
	"github.com/baechuer/blood-drive-service/internal/infrastructure/db/memory"
	"github.com/baechuer/blood-drive-service/internal/infrastructure/db/postgres"
	rabbitpub "github.com/baechuer/blood-drive-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/blood-drive-service/internal/logger"
	"github.com/baechuer/blood-drive-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/blood-drive-service/internal/transport/http/middleware"
	"github.com/baechuer/blood-drive-service/internal/transport/http/router"
	zlog "github.com/rs/zerolog/log"
)

// sysClock implements the application Clock ports with system time
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// repository is what both stores offer the services.
type repository interface {
	event.EventRepo
	profile.EventReader
}

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *sql.DB

	Publisher *rabbitpub.Publisher
	Consumer  *rabbitpub.StatsConsumer
	Redis     *rediscache.Client

	profile      *profile.Service
	startWorkers func(ctx context.Context, pub event.EventPublisher)
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.UsesMemoryStore() {
		zlog.Warn().Msg("DATABASE_URL empty: using in-memory store, data is lost on restart")
	} else {
		db, err = openDB(ctx, cfg)
		if err != nil {
			zlog.Fatal().Err(err).Msg("database init failed")
		}
		defer db.Close()
	}

	app, err := NewApp(cfg, db)
	if err != nil {
		zlog.Fatal().Err(err).Msg("app init failed")
	}
	defer app.Close()

	app.Start(ctx)

	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		zlog.Info().
			Str("db_user", u.User.Username()).
			Str("db_host", u.Host).
			Str("db_db", u.Path).
			Msg("db config loaded")
	}

	if cfg.AutoMigrate {
		if err := postgres.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		zlog.Info().Msg("migrations applied")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewApp wires the service. A nil db selects the in-memory store.
func NewApp(cfg *config.Config, db *sql.DB) (*App, error) {
	app := &App{Config: cfg, DB: db}
	clock := sysClock{}
	auditLog := audit.New(zlog.Logger)
	checks := map[string]handlers.Check{}

	// 1) Infrastructure
	var repo repository
	if db == nil {
		mem := memory.NewEventRepo()
		repo = mem
		app.startWorkers = func(ctx context.Context, pub event.EventPublisher) {
			mem.StartOutboxWorker(ctx, pub, cfg.OutboxPollInterval)
		}
	} else {
		pg := postgres.New(db, cfg.EventLocation)
		repo = pg
		checks["postgres"] = pg.Ping
		app.startWorkers = func(ctx context.Context, pub event.EventPublisher) {
			pg.StartOutboxWorker(ctx, pub, postgres.OutboxOptions{
				Interval: cfg.OutboxPollInterval,
				OnDead:   auditLog.OutboxMessageDead,
			})
		}
	}

	var details event.Cache
	var stats profile.Cache = statscache.New(cfg.ProfileStatsTTL, clock)
	if cfg.RedisURL != "" {
		rc, err := rediscache.New(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.Redis = rc
		details = rc
		stats = rediscache.NewStatsCache(rc, cfg.ProfileStatsTTL)
		checks["redis"] = rc.Ping
		zlog.Info().Msg("redis cache ready")
	} else {
		zlog.Warn().Msg("REDIS_URL empty: event details are not cached, profile stats cached in-process")
	}

	if cfg.RabbitURL != "" {
		p, err := rabbitpub.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Publisher = p
		checks["rabbitmq"] = func(context.Context) error {
			if !p.Healthy() {
				return rabbitpub.ErrNotConnected
			}
			return nil
		}
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: domain events will not be published")
	}

	// 2) Application
	app.profile = profile.New(repo, stats, clock)
	svc := event.New(repo, clock, details, app.profile, auditLog, cfg.CacheTTLDetails)

	// 3) Transport
	h := handlers.NewEventsHandler(svc, cfg.EventLocation)
	p := handlers.NewProfileHandler(app.profile)
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer)
	z := handlers.NewHealthHandler(checks)

	// 4) Router
	httpHandler := router.New(h, p, auth, z, cfg)

	// 5) Server
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
	return app, nil
}

// Start launches the outbox relay and, with a broker, the stats consumer.
func (a *App) Start(ctx context.Context) {
	var pub event.EventPublisher = event.NoopPublisher{}
	if a.Publisher != nil {
		pub = a.Publisher
	}
	a.startWorkers(ctx, pub)

	if a.Config.RabbitURL == "" {
		return
	}
	c, err := rabbitpub.NewStatsConsumer(a.Config.RabbitURL, a.Config.RabbitExchange, a.Config.StatsQueue, a.profile)
	if err != nil {
		zlog.Error().Err(err).Msg("stats consumer init failed, cross-instance stats invalidation disabled")
		return
	}
	if err := c.Start(ctx); err != nil {
		zlog.Error().Err(err).Msg("stats consumer start failed")
		_ = c.Close()
		return
	}
	a.Consumer = c
}

func (a *App) Close() {
	if a.Consumer != nil {
		_ = a.Consumer.Close()
	}
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
