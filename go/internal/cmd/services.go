package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/openpitch/scoreroom/go/internal/criteria"
	"github.com/openpitch/scoreroom/go/internal/dbconfig"
	"github.com/openpitch/scoreroom/go/internal/events"
	"github.com/openpitch/scoreroom/go/internal/gateway"
	"github.com/openpitch/scoreroom/go/internal/store"
	"github.com/openpitch/scoreroom/go/internal/store/memstore"
	"github.com/openpitch/scoreroom/go/internal/store/pgstore"
	"github.com/openpitch/scoreroom/go/internal/store/pgstore/migrations"
)

// Services bundles everything the server process runs.
type Services struct {
	Store     store.Store
	PgStore   *pgstore.Store // nil with the in-memory store
	Gateway   *gateway.Service
	Publisher *events.Publisher // nil when NATS is disabled
	Consumer  *events.Consumer  // nil when NATS is disabled
}

func setupServices(cfg Config) (*Services, error) {
	table, err := loadCriteria(cfg)
	if err != nil {
		return nil, err
	}

	svcs := &Services{}

	if cfg.MemoryStore {
		log.Info().Msg("using in-memory room store")
		svcs.Store = memstore.New()
	} else {
		st, err := setupPgStore()
		if err != nil {
			return nil, err
		}
		svcs.Store = st
		svcs.PgStore = st
	}

	if cfg.NATSEnabled {
		natsCfg := events.DefaultConfig()
		natsCfg.URL = cfg.NATSURL

		pub, err := events.NewPublisher(natsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		svcs.Publisher = pub
	}

	svcs.Gateway = gateway.New(svcs.Store, table, clockwork.NewRealClock(), cfg.HostKey, svcs.Publisher)

	if cfg.NATSEnabled {
		natsCfg := events.DefaultConfig()
		natsCfg.URL = cfg.NATSURL

		consumer, err := events.NewConsumer(natsCfg, svcs.Gateway.HandleRoomEvent)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		svcs.Consumer = consumer
	}

	return svcs, nil
}

func loadCriteria(cfg Config) (criteria.Table, error) {
	if cfg.CriteriaPath == "" {
		return criteria.Default(), nil
	}
	table, err := criteria.Load(cfg.CriteriaPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.CriteriaPath).Int("criteria", len(table)).Msg("loaded criteria table")
	return table, nil
}

func setupPgStore() (*pgstore.Store, error) {
	dbCfg := dbconfig.NewConfigFromEnv()
	dsn := dbCfg.DSN()

	if err := migrations.Up(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")

	return pgstore.New(pool, dsn)
}
