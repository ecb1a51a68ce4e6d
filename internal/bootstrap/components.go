package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/skillnavigator/roadmap-service/config"
	httpapi "github.com/skillnavigator/roadmap-service/internal/api/http"
	"github.com/skillnavigator/roadmap-service/internal/metrics"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/events"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/inference"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/ledger"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/publisher"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/service"
)

const serviceName = "roadmap-service"

// Components are the collaborator clients, created once at startup.
type Components struct {
	Ledger     ledger.Ledger
	Store      publisher.ObjectStore
	LocalStore *publisher.LocalStore
	Events     events.Publisher
	Checks     map[string]httpapi.Pinger

	cleanup []func()
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Build connects every backend selected by cfg. On error, anything already
// opened is closed.
func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	c := &Components{Checks: map[string]httpapi.Pinger{}}

	if err := c.buildLedger(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.buildStore(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.buildEvents(cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Components) Close() {
	for i := len(c.cleanup) - 1; i >= 0; i-- {
		c.cleanup[i]()
	}
	c.cleanup = nil
}

func (c *Components) buildLedger(ctx context.Context, cfg *config.Config) error {
	switch cfg.Ledger.Backend {
	case config.LedgerDynamoDB:
		awsCfg, err := LoadAWS(ctx)
		if err != nil {
			return err
		}
		c.Ledger = ledger.NewDynamoDBLedger(NewDynamoDB(awsCfg), cfg.Ledger.DynamoDBTable)

	case config.LedgerRedis:
		rdb, err := ConnectRedis(ctx, RedisOptions{
			Addr:     cfg.Ledger.RedisAddr,
			Password: cfg.Ledger.RedisPassword,
			DB:       cfg.Ledger.RedisDB,
		})
		if err != nil {
			return err
		}
		c.cleanup = append(c.cleanup, func() { _ = rdb.Close() })
		c.Checks["redis"] = redisPinger(rdb)
		c.Ledger = ledger.NewRedisLedger(rdb, cfg.Ledger.RedisPrefix)

	case config.LedgerPostgres:
		pool, err := OpenDB(ctx, DBOptions{DSN: cfg.Ledger.DSN})
		if err != nil {
			return err
		}
		db := SQLDB(pool)
		c.cleanup = append(c.cleanup, func() {
			_ = db.Close()
			pool.Close()
		})
		c.Checks["postgres"] = pool
		c.Ledger = ledger.NewPostgresLedger(db, cfg.Ledger.SQLTable)

	case config.LedgerMemory:
		slog.Warn("using in-memory ledger, balances are lost on restart")
		c.Ledger = ledger.NewMemoryLedger(nil)

	default:
		return fmt.Errorf("unsupported ledger backend %q", cfg.Ledger.Backend)
	}
	return nil
}

func (c *Components) buildStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Backend {
	case config.StorageS3:
		awsCfg, err := LoadAWS(ctx)
		if err != nil {
			return err
		}
		c.Store = publisher.NewS3Store(NewS3(awsCfg), cfg.Storage.Bucket)

	case config.StorageLocal:
		local := publisher.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicURL, cfg.Storage.SigningKey)
		c.Store = local
		c.LocalStore = local

	default:
		return fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

func (c *Components) buildEvents(cfg *config.Config) error {
	nc, err := ConnectNATS(cfg.Events.NatsURL, serviceName)
	if err != nil {
		return err
	}
	if nc == nil {
		c.Events = events.Noop{}
		return nil
	}

	c.cleanup = append(c.cleanup, func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	})
	c.Checks["nats"] = natsPinger(nc)
	c.Events = events.NewNATSBus(nc, cfg.Events.Subject)
	return nil
}

// Workflow assembles the generation workflow from built components.
func (c *Components) Workflow(cfg *config.Config, m *metrics.Metrics) *service.Workflow {
	return service.NewWorkflow(service.Deps{
		Ledger: c.Ledger,
		Generator: inference.NewClient(inference.Options{
			APIKey:  cfg.Inference.APIKey,
			URL:     cfg.Inference.URL,
			Model:   cfg.Inference.Model,
			Timeout: cfg.Inference.Timeout,
			Metrics: m,
		}),
		Publisher: publisher.New(c.Store, publisher.WithMetrics(m)),
		Events:    c.Events,
		Metrics:   m,
	})
}

func redisPinger(rdb *redis.Client) httpapi.Pinger {
	return pingFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
}

func natsPinger(nc *nats.Conn) httpapi.Pinger {
	return pingFunc(func(context.Context) error {
		if !nc.IsConnected() {
			return errors.New(nc.Status().String())
		}
		return nil
	})
}
