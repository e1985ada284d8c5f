// Package app wires the transaction ledger from configuration. Both binaries build
// the same graph and add their own front end on top.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/portfolio/eventlog"
	kafkaLog "github.com/fastygo/portfolio/eventlog/kafka"
	redisLog "github.com/fastygo/portfolio/eventlog/redis"
	"github.com/fastygo/portfolio/internal/config"
	"github.com/fastygo/portfolio/internal/infrastructure/buffer"
	kafkaInfra "github.com/fastygo/portfolio/internal/infrastructure/kafka"
	"github.com/fastygo/portfolio/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/portfolio/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/portfolio/internal/infrastructure/redis"
	"github.com/fastygo/portfolio/internal/services"
	"github.com/fastygo/portfolio/internal/services/lifecycle"
	"github.com/fastygo/portfolio/repository"
	"github.com/fastygo/portfolio/repository/memory"
	pgRepo "github.com/fastygo/portfolio/repository/postgres"
	txUC "github.com/fastygo/portfolio/usecase/transaction"
)

const monitorInterval = 10 * time.Second

type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Lifecycle    *lifecycle.Manager
	Monitor      *monitor.Monitor
	Republisher  *services.Republisher
	Publisher    *eventlog.Publisher
	Transactions *txUC.UseCase
}

// New connects every dependency named by cfg and starts the background workers.
// Resources are registered with the lifecycle manager as they are acquired; on error
// the ones already open are released before returning.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (app *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, logger)
	defer func() {
		if err != nil {
			if shutdownErr := manager.Shutdown(context.Background()); shutdownErr != nil {
				logger.Warn("partial startup cleanup failed", zap.Error(shutdownErr))
			}
		}
	}()

	var probes []monitor.Probe

	repo, probe, err := openRepository(ctx, cfg, manager, logger)
	if err != nil {
		return nil, err
	}
	probes = append(probes, probe)

	appender, probe, err := openEventLog(ctx, cfg, manager, logger)
	if err != nil {
		return nil, err
	}
	probes = append(probes, probe)

	streams := eventlog.NewStreams(cfg.EventLog.StreamPrefix)
	publisher := eventlog.NewPublisher(appender, streams, logger.Named("eventlog"))

	store, err := buffer.Open(cfg.Buffer.Path, buffer.DefaultBucket)
	if err != nil {
		return nil, fmt.Errorf("open event buffer: %w", err)
	}
	manager.Register("buffer", func(context.Context) error { return store.Close() })

	mon := monitor.New(probes, store, monitorInterval, logger.Named("monitor"))
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return mon.Wait(ctx)
	})

	republisher := services.NewRepublisher(store, publisher, mon, logger.Named("republisher"), services.RepublisherConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  cfg.Buffer.BatchSize,
		MaxRetries: cfg.Buffer.MaxRetry,
		Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
	})
	republisher.Start()
	manager.Register("republisher", republisher.Stop)

	parker := services.NewEventParker(store, streams, logger.Named("buffer"))
	uc := txUC.New(repo, publisher, parker, logger.Named("transactions"))

	logger.Info("ledger ready",
		zap.String("repository", cfg.Repository.Driver),
		zap.String("eventlog", cfg.EventLog.Driver),
		zap.Strings("streams", streams.All()))

	return &App{
		Config:       cfg,
		Logger:       logger,
		Lifecycle:    manager,
		Monitor:      mon,
		Republisher:  republisher,
		Publisher:    publisher,
		Transactions: uc,
	}, nil
}

// Shutdown stops workers and closes connections in reverse start order.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Lifecycle.Shutdown(ctx)
}

func openRepository(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (repository.TransactionRepository, monitor.Probe, error) {
	if cfg.Repository.Driver == config.RepositoryMemory {
		logger.Warn("using in-memory repository; transactions are lost on exit")
		return memory.NewTransactionRepository(), monitor.MemoryProbe(), nil
	}

	if err := pgInfra.RunMigrations(cfg, logger); err != nil {
		return nil, monitor.Probe{}, fmt.Errorf("migrations: %w", err)
	}
	pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, monitor.Probe{}, fmt.Errorf("postgres: %w", err)
	}
	manager.Register("postgres", func(context.Context) error {
		pgInfra.Close(pool, logger)
		return nil
	})
	return pgRepo.NewTransactionRepository(pool), monitor.PostgresProbe(pool), nil
}

func openEventLog(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (eventlog.Appender, monitor.Probe, error) {
	switch cfg.EventLog.Driver {
	case config.EventLogKafka:
		client, producer, err := kafkaInfra.Connect(cfg.Kafka, logger)
		if err != nil {
			return nil, monitor.Probe{}, fmt.Errorf("kafka: %w", err)
		}
		manager.Register("kafka", func(context.Context) error {
			if err := producer.Close(); err != nil {
				return err
			}
			if client.Closed() {
				return nil
			}
			return client.Close()
		})
		return kafkaLog.NewAppender(producer), monitor.KafkaProbe(client), nil
	default:
		client, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, monitor.Probe{}, fmt.Errorf("redis: %w", err)
		}
		manager.Register("redis", func(context.Context) error { return client.Close() })
		return redisLog.NewAppender(client, cfg.EventLog.MaxLen), monitor.RedisProbe(client), nil
	}
}

// BufferPathFor gives each process its own buffer file; bbolt holds an exclusive lock.
func BufferPathFor(path, component string) string {
	if component == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + component + ext
}
