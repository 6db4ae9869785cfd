package postgres

import (
	"context"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	kbackfill "github.com/eggrates/eggrate/pkg/domain/backfill/db"
	kpgbackfill "github.com/eggrates/eggrate/pkg/domain/backfill/db/postgres"
	dbInterface "github.com/eggrates/eggrate/pkg/domain/eggrate/db"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
	kpgplaces "github.com/eggrates/eggrate/pkg/domain/places/db/postgres"
	krates "github.com/eggrates/eggrate/pkg/domain/rates/db"
	kpgrates "github.com/eggrates/eggrate/pkg/domain/rates/db/postgres"
	kretention "github.com/eggrates/eggrate/pkg/domain/retention/db"
	kpgretention "github.com/eggrates/eggrate/pkg/domain/retention/db/postgres"
	kschema "github.com/eggrates/eggrate/pkg/domain/schema/db"
	kpgschema "github.com/eggrates/eggrate/pkg/domain/schema/db/postgres"
	xe "github.com/eggrates/eggrate/pkg/errors"
)

type eggrateDBPostgres struct {
	pool      *pgxpool.Pool
	rates     krates.Interface
	places    kplaces.Interface
	backfill  kbackfill.Interface
	retention kretention.Interface
	schema    kschema.Interface
}

type Config struct {
	LookbackDays int
	Logger       *log.Logger
}

func DefaultConfig() Config {
	return Config{
		LookbackDays: kpgbackfill.DefaultLookbackDays,
		Logger:       log.Default(),
	}
}

type Option func(*Config) *Config

func WithLookbackDays(days int) Option {
	return func(c *Config) *Config {
		if 0 < days {
			c.LookbackDays = days
		}
		return c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Config) *Config {
		c.Logger = l
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.EggRateDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := DefaultConfig()
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	places := kpgplaces.New(p, kpgplaces.WithLogger(c.Logger))

	return &eggrateDBPostgres{
		pool:   pool,
		rates:  kpgrates.New(p, places, kpgrates.WithLogger(c.Logger)),
		places: places,
		backfill: kpgbackfill.New(p, places,
			kpgbackfill.WithLookbackDays(c.LookbackDays),
			kpgbackfill.WithLogger(c.Logger),
		),
		retention: kpgretention.New(p, kpgretention.WithLogger(c.Logger)),
		schema:    kpgschema.New(p, kpgschema.WithLogger(c.Logger)),
	}, nil
}

func (e *eggrateDBPostgres) Rates() krates.Interface {
	return e.rates
}

func (e *eggrateDBPostgres) Places() kplaces.Interface {
	return e.places
}

func (e *eggrateDBPostgres) Backfill() kbackfill.Interface {
	return e.backfill
}

func (e *eggrateDBPostgres) Retention() kretention.Interface {
	return e.retention
}

func (e *eggrateDBPostgres) Schema() kschema.Interface {
	return e.schema
}

func (e *eggrateDBPostgres) Close() error {
	e.pool.Close()
	return nil
}
