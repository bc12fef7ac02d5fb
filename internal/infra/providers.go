package infra

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"github.com/uptrace/bun"

	"ichi-go/config"
	"ichi-go/internal/infra/broker/rabbitmq"
	"ichi-go/internal/infra/cache"
	"ichi-go/internal/infra/database"
	"ichi-go/pkg/logger"
)

func Setup(injector do.Injector, cfg *config.Config) {
	do.ProvideValue(injector, cfg)

	do.Provide(injector, provideDatabase)
	do.Provide(injector, provideCache)
	do.Provide(injector, provideBroker)
}

func provideDatabase(i do.Injector) (*bun.DB, error) {
	cfg := do.MustInvoke[*config.Config](i)
	db, err := database.NewBunClient(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	logger.Debugf("initialized database")
	return db, nil
}

func provideCache(i do.Injector) (*redis.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := cache.New()
	if client == nil {
		return nil, fmt.Errorf("failed to create cache")
	}
	logger.Debugf("initialized cache (db=%d)", cfg.Cache.Db)
	return client, nil
}

// provideBroker dials the canonical RabbitMQ connection (internal/infra/broker/rabbitmq),
// replacing the teacher's three parallel AMQP stacks for anything wired through this
// injector. Returns nil (not an error) when broker.enabled is false.
func provideBroker(i do.Injector) (*rabbitmq.Connection, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Broker.Enabled {
		return nil, nil
	}
	conn, err := rabbitmq.Dial(cfg.Broker.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	if err := rabbitmq.SetupTopology(conn, cfg.Broker); err != nil {
		return nil, fmt.Errorf("failed to set up broker topology: %w", err)
	}
	logger.Debugf("initialized broker connection")
	return conn, nil
}
