package postgres

import (
	"context"
	"log"
	"time"

	kpool "github.com/eggrates/eggrate/pkg/conn/db/postgres/pool"
	"github.com/eggrates/eggrate/pkg/domain"
	kretention "github.com/eggrates/eggrate/pkg/domain/retention/db"
	xe "github.com/eggrates/eggrate/pkg/errors"
)

type pgRetention struct {
	pool   kpool.Pool
	logger *log.Logger
}

type Option func(*pgRetention) *pgRetention

func WithLogger(l *log.Logger) Option {
	return func(r *pgRetention) *pgRetention {
		r.logger = l
		return r
	}
}

func New(pool kpool.Pool, options ...Option) kretention.Interface {
	r := &pgRetention{pool: pool, logger: log.Default()}
	for _, option := range options {
		r = option(r)
	}
	return r
}

func (r *pgRetention) Run(ctx context.Context, cutoff time.Time) (domain.RetentionReport, error) {
	cutoff = domain.Day(cutoff)
	report := domain.RetentionReport{Cutoff: cutoff}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return report, xe.Wrap(err)
	}
	defer tx.Rollback(ctx)

	// 1. archive legacy rows. rows already in the archive are skipped,
	// so a re-run after an interruption copies nothing twice.
	tag, err := tx.Exec(
		ctx,
		`
		insert into "rate_archive" ("city", "state", "rate_date", "rate")
		select btrim(lower("e"."city")), btrim(lower("e"."state")), "e"."rate_date", max("e"."rate")
		from "egg_rate" as "e"
		where "e"."rate_date" < $1
		  and not exists (
			select 1 from "rate_archive" as "a"
			where "a"."city" = btrim(lower("e"."city"))
			  and "a"."state" = btrim(lower("e"."state"))
			  and "a"."rate_date" = "e"."rate_date"
		  )
		group by btrim(lower("e"."city")), btrim(lower("e"."state")), "e"."rate_date"
		`,
		cutoff,
	)
	if err != nil {
		return report, xe.Wrap(err)
	}
	report.LegacyArchived = tag.RowsAffected()

	// 2. archive normalized rows. best-effort: the savepoint confines
	// a failure here to the normalized schema.
	factsArchived, secondaryErr := r.archiveFacts(ctx, tx, cutoff)
	report.FactsArchived = factsArchived
	report.SecondaryErr = secondaryErr

	// 3. purge archived legacy rows. only rows with a matching archive
	// entry go; a row is never in neither place.
	tag, err = tx.Exec(
		ctx,
		`
		delete from "egg_rate" as "e"
		where "e"."rate_date" < $1
		  and exists (
			select 1 from "rate_archive" as "a"
			where "a"."city" = btrim(lower("e"."city"))
			  and "a"."state" = btrim(lower("e"."state"))
			  and "a"."rate_date" = "e"."rate_date"
		  )
		`,
		cutoff,
	)
	if err != nil {
		return report, xe.Wrap(err)
	}
	report.LegacyDeleted = tag.RowsAffected()

	// 4. purge archived normalized rows, unless step 2 already failed.
	if report.SecondaryErr == nil {
		factsDeleted, err := r.deleteFacts(ctx, tx, cutoff)
		report.FactsDeleted = factsDeleted
		report.SecondaryErr = err
	}

	if err := tx.Commit(ctx); err != nil {
		return report, xe.Wrap(err)
	}
	return report, nil
}

func (r *pgRetention) archiveFacts(ctx context.Context, tx kpool.Tx, cutoff time.Time) (int64, error) {
	inner, err := tx.Begin(ctx)
	if err != nil {
		return 0, xe.Wrap(err)
	}
	defer inner.Rollback(ctx)

	tag, err := inner.Exec(
		ctx,
		`
		insert into "rate_archive" ("city", "state", "rate_date", "rate")
		select "c"."name", "s"."name", "f"."rate_date", "f"."rate"
		from "rate_fact" as "f"
		inner join "city" as "c" on "f"."city_id" = "c"."id"
		inner join "state" as "s" on "c"."state_id" = "s"."id"
		where "f"."rate_date" < $1
		  and not exists (
			select 1 from "rate_archive" as "a"
			where "a"."city" = "c"."name"
			  and "a"."state" = "s"."name"
			  and "a"."rate_date" = "f"."rate_date"
		  )
		`,
		cutoff,
	)
	if err != nil {
		r.logger.Printf("normalized-schema archival failed: %s", err)
		return 0, xe.Wrap(err)
	}
	if err := inner.Commit(ctx); err != nil {
		r.logger.Printf("normalized-schema archival failed: %s", err)
		return 0, xe.Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgRetention) deleteFacts(ctx context.Context, tx kpool.Tx, cutoff time.Time) (int64, error) {
	inner, err := tx.Begin(ctx)
	if err != nil {
		return 0, xe.Wrap(err)
	}
	defer inner.Rollback(ctx)

	tag, err := inner.Exec(
		ctx,
		`
		delete from "rate_fact" as "f"
		using "city" as "c", "state" as "s"
		where "f"."city_id" = "c"."id"
		  and "c"."state_id" = "s"."id"
		  and "f"."rate_date" < $1
		  and exists (
			select 1 from "rate_archive" as "a"
			where "a"."city" = "c"."name"
			  and "a"."state" = "s"."name"
			  and "a"."rate_date" = "f"."rate_date"
		  )
		`,
		cutoff,
	)
	if err != nil {
		r.logger.Printf("normalized-schema purge failed: %s", err)
		return 0, xe.Wrap(err)
	}
	if err := inner.Commit(ctx); err != nil {
		r.logger.Printf("normalized-schema purge failed: %s", err)
		return 0, xe.Wrap(err)
	}
	return tag.RowsAffected(), nil
}
