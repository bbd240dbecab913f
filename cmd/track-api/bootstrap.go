package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/TrackDesk/config"
	trackingsapi "github.com/BearBump/TrackDesk/internal/api/trackings_api"
	"github.com/BearBump/TrackDesk/internal/broker/kafka"
	"github.com/BearBump/TrackDesk/internal/cache/rediscache"
	"github.com/BearBump/TrackDesk/internal/services/trackings"
	"github.com/BearBump/TrackDesk/internal/storage/memtracking"
	"github.com/BearBump/TrackDesk/internal/storage/pgtracking"
	"github.com/BearBump/TrackDesk/internal/storage/sqlitetracking"
)

const (
	storageMemory   = "memory"
	storagePostgres = "postgres"
	storageSQLite   = "sqlite"
)

type trackAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   trackAPIOpts
	deps   trackAPIDeps

	closers []func()
}

func mustBootstrapTrackAPI() *trackAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &trackAPIApp{ctx: ctx, cancel: cancel}

	app.opts = trackAPIOpts{
		httpAddr:          cfg.TrackDesk.HTTPAddr,
		swaggerPath:       swaggerPath,
		scansTopic:        cfg.Kafka.CarrierScansTopicName,
		consumerGroup:     cfg.TrackDesk.KafkaConsumerGroup,
		trustProxyHeaders: cfg.TrackDesk.TrustProxyHeaders,
	}
	if app.opts.httpAddr == "" {
		app.opts.httpAddr = ":8080"
	}
	if app.opts.scansTopic == "" {
		app.opts.scansTopic = "tracking.scans"
	}
	if app.opts.consumerGroup == "" {
		app.opts.consumerGroup = "track-api"
	}
	changedTopic := cfg.Kafka.TrackingChangedTopicName
	if changedTopic == "" {
		changedTopic = "tracking.changed"
	}

	loc := time.Local
	if cfg.TrackDesk.Timezone != "" {
		loc, err = time.LoadLocation(cfg.TrackDesk.Timezone)
		if err != nil {
			panic(fmt.Sprintf("unknown timezone %q: %v", cfg.TrackDesk.Timezone, err))
		}
	}

	repo := app.mustOpenStorage(cfg)

	// typed nil в интерфейсе сломает проверки на nil, поэтому только через var
	var publisher trackings.Publisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers())
		publisher = producer
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers(), app.opts.scansTopic, app.opts.consumerGroup)
		app.deps.consumer = consumer
		app.closers = append(app.closers, func() {
			_ = consumer.Close()
			_ = producer.Close()
		})
	} else {
		slog.Info("kafka is not configured, change notifications and carrier scans are off")
	}

	var limiter trackingsapi.Limiter
	limit := int64(cfg.TrackDesk.PublicLookupRateLimitPerMinute)
	if cfg.Redis.Enabled() && limit > 0 {
		rl := rediscache.NewRateLimiter(cfg.Redis.Addr())
		limiter = rl
		app.deps.checks = append(app.deps.checks, readinessCheck{name: "redis", check: rl.Ping})
		app.closers = append(app.closers, func() { _ = rl.Close() })
	}

	svc := trackings.New(repo, publisher, changedTopic).WithLocation(loc)
	app.deps.api = trackingsapi.New(svc).WithLookupLimit(limiter, limit)
	app.deps.scans = svc

	return app
}

func (a *trackAPIApp) mustOpenStorage(cfg *config.Config) trackings.Repository {
	kind := cfg.TrackDesk.Storage
	if kind == "" {
		kind = storageMemory
	}
	if cfg.TrackDesk.SeedDemoData && kind != storageMemory {
		slog.Warn("seed_demo_data is only applied to the memory storage", "storage", kind)
	}

	switch kind {
	case storageMemory:
		st := memtracking.New()
		if cfg.TrackDesk.SeedDemoData {
			st.SeedDemoData()
			slog.Info("demo data seeded")
		}
		return st
	case storagePostgres:
		st := mustOpenPostgresWithRetry(a.ctx, cfg.Database.ConnString(), 60*time.Second)
		a.deps.checks = append(a.deps.checks, readinessCheck{name: "postgres", check: st.Ping})
		a.closers = append(a.closers, st.Close)
		return st
	case storageSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = "trackdesk.db"
		}
		st, err := sqlitetracking.New(a.ctx, path)
		if err != nil {
			panic(fmt.Sprintf("open sqlite %s: %v", path, err))
		}
		a.deps.checks = append(a.deps.checks, readinessCheck{name: "sqlite", check: st.Ping})
		a.closers = append(a.closers, func() { _ = st.Close() })
		return st
	default:
		panic(fmt.Sprintf("unknown storage %q, want memory, postgres or sqlite", kind))
	}
}

func mustOpenPostgresWithRetry(ctx context.Context, connString string, wait time.Duration) *pgtracking.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgtracking.New(ctx, connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *trackAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *trackAPIApp) Run() error {
	return runTrackAPI(a.ctx, a.opts, a.deps)
}
