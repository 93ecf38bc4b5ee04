package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audittrail/internal/hostbridge"
	httpapi "audittrail/internal/http"
	"audittrail/internal/notify"
	"audittrail/internal/platform/config"
	"audittrail/internal/platform/database"
	"audittrail/internal/platform/httpserver"
	"audittrail/internal/platform/logger"
	"audittrail/internal/platform/metrics"
	platformredis "audittrail/internal/platform/redis"
	"audittrail/internal/principal"
	"audittrail/internal/sensor"
	"audittrail/internal/sensorconfig"
	"audittrail/pkg/platform/audit/chain"
	"audittrail/pkg/platform/audit/diff"
	"audittrail/pkg/platform/audit/store/memory"
	"audittrail/pkg/platform/audit/store/postgres"
	"audittrail/pkg/platform/audit/writer"
	"audittrail/pkg/platform/circuit"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// recordStore is what the writer and the chain check need from storage.
type recordStore interface {
	writer.Store
	chain.Store
}

// chainPosition is where the chaining pass resumes.
type chainPosition struct {
	lastID int64
	head   string
}

func main() {
	cfg, err := config.Load(os.Getenv("AUDIT_CONFIG_DIR"))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("audittrail stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	checks := map[string]httpapi.HealthCheck{}

	store, resume, db, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["database"] = db.PingContext
	}

	g, gctx := errgroup.WithContext(ctx)

	chainer := chain.New(store, chain.WithResume(resume.lastID, resume.head), chain.WithLogger(log))
	g.Go(func() error { return chainer.Run(gctx, time.Second) })

	observers := []writer.Option{
		writer.WithLogger(log),
		writer.WithMetrics(writer.NewMetrics(reg)),
		writer.WithObserver(chainer),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		notifier, closeKafka, err := openNotifier(gctx, cfg.Kafka, reg, log)
		if err != nil {
			return err
		}
		defer closeKafka()
		observers = append(observers, writer.WithObserver(notifier))
		g.Go(func() error { return notifier.Run(gctx) })
	}
	w, err := writer.New(store, observers...)
	if err != nil {
		return err
	}

	active, anonymize, stopWatch, err := openSensorConfig(gctx, cfg, checks, log)
	if err != nil {
		return err
	}
	defer stopWatch()

	dispatcher := hostbridge.NewDispatcher(active, w, log,
		sensor.WithMetrics(sensor.NewMetrics(reg)),
		sensor.WithAnonymization(anonymize),
		sensor.WithSiteScope(cfg.Sensors.SiteScope),
		sensor.WithDiffEngine(diff.New(diff.WithMaxDepth(cfg.Sensors.FlattenDepth))),
	)

	deps := httpapi.Deps{
		Units:      hostbridge.NewHandler(dispatcher, log, metrics.New(reg)),
		Records:    store,
		AdminToken: cfg.Server.AdminToken,
		Gatherer:   reg,
		Checks:     checks,
		Logger:     log,
	}
	if cfg.Server.PrincipalSigningKey != "" {
		tokens := principal.NewService(cfg.Server.PrincipalSigningKey, cfg.Server.PrincipalIssuer, cfg.Server.PrincipalAudience)
		deps.Tokens = principal.NewMiddlewareAdapter(tokens)
	} else {
		log.Warn("no principal signing key configured, bearer tokens are ignored")
	}

	srv := httpserver.New(cfg.Server.Addr, httpapi.NewRouter(deps))
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openStore returns the record store and the chain position to resume from.
func openStore(ctx context.Context, cfg config.Database, log *slog.Logger) (recordStore, chainPosition, *sql.DB, error) {
	if cfg.URL == "" {
		log.Warn("no database configured, audit records are kept in memory")
		return memory.NewInMemoryStore(), chainPosition{}, nil, nil
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, chainPosition{}, nil, err
	}
	store := postgres.New(db)
	lastID, head, err := store.LastChained(ctx)
	if err != nil {
		_ = db.Close()
		return nil, chainPosition{}, nil, err
	}
	return store, chainPosition{lastID: lastID, head: head}, db, nil
}

func openNotifier(ctx context.Context, cfg config.Kafka, reg prometheus.Registerer, log *slog.Logger) (*notify.KafkaNotifier, func(), error) {
	client, err := notify.NewClient(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	if err := notify.EnsureTopic(ctx, client, cfg.Topic, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		log.Warn("could not ensure kafka topic", "topic", cfg.Topic, "error", err)
	}
	n, err := notify.New(client, cfg.Topic,
		notify.WithLogger(log),
		notify.WithMetrics(notify.NewMetrics(reg)),
		notify.WithBufferSize(cfg.BufferSize),
		notify.WithBatchSize(cfg.BatchSize),
		notify.WithFlushInterval(cfg.FlushInterval),
		notify.WithBreaker(circuit.New("kafka")),
	)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return n, client.Close, nil
}

// openSensorConfig layers the active-sensor sources: registry defaults or
// the YAML file, optionally fronted by Redis.
func openSensorConfig(ctx context.Context, cfg config.Config, checks map[string]httpapi.HealthCheck, log *slog.Logger) (sensor.ActiveSensors, sensor.AnonymizationPolicy, func(), error) {
	var (
		active    sensor.ActiveSensors       = sensorconfig.Registry{}
		anonymize sensor.AnonymizationPolicy = sensor.StaticPolicy(cfg.Sensors.AnonymizeIP)
		file      *sensorconfig.File
		stop      = func() {}
	)
	if cfg.Sensors.ConfigPath != "" {
		f, err := sensorconfig.NewFile(cfg.Sensors.ConfigPath,
			sensorconfig.WithFileLogger(log),
			sensorconfig.WithDefaultAnonymize(cfg.Sensors.AnonymizeIP),
		)
		if err != nil {
			return nil, nil, nil, err
		}
		watchStop, err := f.Watch()
		if err != nil {
			return nil, nil, nil, err
		}
		file, active, anonymize, stop = f, f, f, watchStop
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	if rc == nil {
		return active, anonymize, stop, nil
	}
	checks["redis"] = rc.Health

	cache := sensorconfig.NewRedisCache(rc.Client, active,
		sensorconfig.WithTTL(cfg.Redis.ActiveSetTTL),
		sensorconfig.WithCacheLogger(log),
	)
	if file != nil {
		file.OnChange(func() {
			if err := cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
				log.Warn("active-set cache invalidation failed", "error", err)
			}
		})
	}
	return cache, anonymize, func() {
		stop()
		_ = rc.Close()
	}, nil
}
