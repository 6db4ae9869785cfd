package postgres

import (
	"context"
	"log"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	kschema "github.com/eggrates/eggrate/pkg/domain/schema/db"
	xe "github.com/eggrates/eggrate/pkg/errors"
)

type pgSchema struct {
	pool   kpool.Pool
	logger *log.Logger
}

type Option func(*pgSchema) *pgSchema

func WithLogger(l *log.Logger) Option {
	return func(s *pgSchema) *pgSchema {
		s.logger = l
		return s
	}
}

func New(pool kpool.Pool, options ...Option) kschema.Interface {
	s := &pgSchema{pool: pool, logger: log.Default()}
	for _, option := range options {
		s = option(s)
	}
	return s
}

var tables = []string{
	`
	create table if not exists "egg_rate" (
		"id" bigserial primary key,
		"city" varchar(100) not null,
		"state" varchar(100) not null,
		"rate_date" date not null,
		"rate" numeric(10, 2) not null
	)
	`,
	`
	create table if not exists "state" (
		"id" bigserial primary key,
		"name" varchar(100) not null unique
	)
	`,
	`
	create table if not exists "city" (
		"id" bigserial primary key,
		"name" varchar(100) not null,
		"state_id" bigint not null references "state" ("id") on delete cascade,
		unique ("name", "state_id")
	)
	`,
	`
	create table if not exists "rate_fact" (
		"id" bigserial primary key,
		"city_id" bigint not null references "city" ("id") on delete cascade,
		"rate_date" date not null,
		"rate" numeric(10, 2) not null,
		unique ("city_id", "rate_date")
	)
	`,
	`
	create table if not exists "rate_archive" (
		"id" bigserial primary key,
		"city" varchar(100) not null,
		"state" varchar(100) not null,
		"rate_date" date not null,
		"rate" numeric(10, 2) not null,
		"archived_at" timestamp with time zone not null default now()
	)
	`,
}

// indexes are created outside the bootstrap transaction and their
// failures are logged, not returned. The system works without them.
var indexes = []string{
	`create index if not exists "idx_egg_rate_date" on "egg_rate" ("rate_date")`,
	`create index if not exists "idx_egg_rate_place" on "egg_rate" (btrim(lower("city")), btrim(lower("state")))`,
	`create index if not exists "idx_rate_fact_date" on "rate_fact" ("rate_date")`,
	`create index if not exists "idx_rate_archive_date" on "rate_archive" ("rate_date")`,
}

func (s *pgSchema) Ensure(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	for _, ddl := range tables {
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return xe.Wrap(err)
		}
	}

	var states int64
	if err := tx.QueryRow(ctx, `select count(*) from "state"`).Scan(&states); err != nil {
		return xe.Wrap(err)
	}
	if states == 0 {
		if err := migrateLegacy(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return xe.Wrap(err)
	}

	for _, ddl := range indexes {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			s.logger.Printf("index creation failed (continuing): %s", err)
		}
	}
	return nil
}

// migrateLegacy copies everything the flat table knows into the
// normalized tables. Names are canonicalized on the way in; when a
// (city, day) pair has several legacy rows, the newest one wins.
func migrateLegacy(ctx context.Context, tx kpool.Tx) error {
	if _, err := tx.Exec(
		ctx,
		`
		insert into "state" ("name")
		select distinct btrim(lower("state")) from "egg_rate"
		on conflict ("name") do nothing
		`,
	); err != nil {
		return xe.Wrap(err)
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "city" ("name", "state_id")
		select distinct btrim(lower("e"."city")), "s"."id"
		from "egg_rate" as "e"
		inner join "state" as "s" on "s"."name" = btrim(lower("e"."state"))
		on conflict ("name", "state_id") do nothing
		`,
	); err != nil {
		return xe.Wrap(err)
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "rate_fact" ("city_id", "rate_date", "rate")
		select distinct on ("c"."id", "e"."rate_date") "c"."id", "e"."rate_date", "e"."rate"
		from "egg_rate" as "e"
		inner join "state" as "s" on "s"."name" = btrim(lower("e"."state"))
		inner join "city" as "c"
			on "c"."name" = btrim(lower("e"."city")) and "c"."state_id" = "s"."id"
		order by "c"."id", "e"."rate_date", "e"."id" desc
		on conflict ("city_id", "rate_date") do nothing
		`,
	); err != nil {
		return xe.Wrap(err)
	}
	return nil
}
